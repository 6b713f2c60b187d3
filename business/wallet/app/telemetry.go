package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/walletd/business/wallet/domain"
)

const meterName = "github.com/fd1az/walletd/business/wallet/app"

// sessionMetrics holds OTEL metric instruments.
type sessionMetrics struct {
	transitions      metric.Int64Counter
	phase            metric.Int64Gauge
	signTimeouts     metric.Int64Counter
	rejections       metric.Int64Counter
	listenerRestarts metric.Int64Counter
	commandLatency   metric.Float64Histogram
}

func newSessionMetrics() (*sessionMetrics, error) {
	meter := otel.Meter(meterName)
	m := &sessionMetrics{}
	var err error

	m.transitions, err = meter.Int64Counter(
		"wallet_phase_transitions_total",
		metric.WithDescription("Total wallet session phase transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	m.phase, err = meter.Int64Gauge(
		"wallet_session_phase",
		metric.WithDescription("Current wallet phase (0=not initialized .. 5=authenticated)"),
		metric.WithUnit("{phase}"),
	)
	if err != nil {
		return nil, err
	}

	m.signTimeouts, err = meter.Int64Counter(
		"wallet_sign_timeouts_total",
		metric.WithDescription("Total sign requests that ran out of time"),
		metric.WithUnit("{timeout}"),
	)
	if err != nil {
		return nil, err
	}

	m.rejections, err = meter.Int64Counter(
		"wallet_rejections_total",
		metric.WithDescription("Total requests rejected in the wallet"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return nil, err
	}

	m.listenerRestarts, err = meter.Int64Counter(
		"wallet_listener_restarts_total",
		metric.WithDescription("Total session restarts triggered by account or network changes"),
		metric.WithUnit("{restart}"),
	)
	if err != nil {
		return nil, err
	}

	m.commandLatency, err = meter.Float64Histogram(
		"wallet_command_duration_ms",
		metric.WithDescription("Wallet command latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *sessionMetrics) phaseChanged(from, to domain.WalletPhase) {
	ctx := context.Background()
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))
	m.phase.Record(ctx, int64(to))
}

func (m *sessionMetrics) commandDone(ctx context.Context, name string, d time.Duration) {
	m.commandLatency.Record(ctx, float64(d.Microseconds())/1000, metric.WithAttributes(attribute.String("command", name)))
}

func (m *sessionMetrics) rejected(ctx context.Context, request string) {
	m.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("request", request)))
}

func (m *sessionMetrics) signTimedOut(ctx context.Context) {
	m.signTimeouts.Add(ctx, 1)
}

func (m *sessionMetrics) listenerRestarted(ctx context.Context, listener string) {
	m.listenerRestarts.Add(ctx, 1, metric.WithAttributes(attribute.String("listener", listener)))
}
