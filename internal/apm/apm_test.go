package apm

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/fd1az/walletd/internal/config"
	"github.com/fd1az/walletd/internal/logger"
)

func TestNewTraceProvider_Disabled(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)

	tests := []config.TelemetryConfig{
		{Enabled: false, TraceProvider: "zipkin"},
		{Enabled: true, TraceProvider: "none"},
		{Enabled: true},
	}
	for _, cfg := range tests {
		tp, err := NewTraceProvider(context.Background(), cfg, log)
		if err != nil {
			t.Fatalf("NewTraceProvider(%+v): %v", cfg, err)
		}
		if err := tp.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	}
}

func TestNewTraceProvider_UnknownProvider(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	_, err := NewTraceProvider(context.Background(), config.TelemetryConfig{Enabled: true, TraceProvider: "jaeger"}, log)
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		raw     string
		want    map[string]string
		wantErr bool
	}{
		{"", map[string]string{}, false},
		{"x-honeycomb-team=abc", map[string]string{"x-honeycomb-team": "abc"}, false},
		{"a=1, b=2", map[string]string{"a": "1", "b": "2"}, false},
		{"novalue", nil, true},
	}
	for _, tt := range tests {
		got, err := parseHeaders(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseHeaders(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("parseHeaders(%q) = %v, want %v", tt.raw, got, tt.want)
		}
		for k, v := range tt.want {
			if got[k] != v {
				t.Errorf("parseHeaders(%q)[%s] = %q, want %q", tt.raw, k, got[k], v)
			}
		}
	}
}

func TestTracer_NoticeError(t *testing.T) {
	tr := NewTracer("test")
	_, span := tr.StartSpanFromContext(context.Background(), "op")
	span.NoticeError(nil)
	span.NoticeError(errors.New("boom"))
	span.End()
}
