package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/apperror"
	"github.com/fd1az/walletd/internal/config"
	"github.com/fd1az/walletd/internal/logger"
	"github.com/fd1az/walletd/internal/ratelimit"
)

const tracerName = "github.com/fd1az/walletd/business/wallet/app"

// Config holds the session timing and mode settings.
type Config struct {
	SignTimeoutSec int           // Countdown start for a sign attempt
	SignTick       time.Duration // Watchdog tick
	SlowDown       time.Duration // Pause between steps, may be zero
	DisableSign    bool          // Skip the challenge round-trip
	RefreshPerMin  int           // refreshLatestBlock budget, 0 = unlimited
}

// NewConfig maps the wallet section of the application config.
func NewConfig(c config.WalletConfig) Config {
	return Config{
		SignTimeoutSec: c.SignTimeoutSec,
		SignTick:       c.SignTick,
		SlowDown:       c.SlowDown,
		DisableSign:    c.DisableSign,
		RefreshPerMin:  c.RefreshPerMin,
	}
}

// Session is one wallet connection driven from NotInitialized to Authenticated.
//
// Every write after a suspension point goes through transition, which drops
// the write when a disconnect moved the generation in the meantime. Snapshots
// are published on an event.Feed in commit order; subscribers must keep up
// because Send blocks until every subscriber received the value.
type Session struct {
	provider WalletProvider
	store    SessionStore
	cfg      Config
	log      logger.LoggerInterface
	limiter  *ratelimit.Limiter
	tracer   trace.Tracer
	metrics  *sessionMetrics

	mu               sync.Mutex
	snap             domain.Snapshot
	gen              uint64
	genCtx           context.Context
	genCancel        context.CancelFunc
	selected         domain.WalletName
	signAttempt      uint64
	signCancel       context.CancelFunc
	accountListening bool
	networkListening bool

	emitMu sync.Mutex
	feed   event.Feed
}

// NewSession creates a session at NotInitialized. store may be nil.
func NewSession(provider WalletProvider, store SessionStore, cfg Config, log logger.LoggerInterface) (*Session, error) {
	if cfg.SignTimeoutSec <= 0 {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("sign timeout must be positive"))
	}
	if cfg.SignTick <= 0 {
		cfg.SignTick = time.Second
	}

	m, err := newSessionMetrics()
	if err != nil {
		return nil, err
	}

	s := &Session{
		provider: provider,
		store:    store,
		cfg:      cfg,
		log:      log,
		tracer:   otel.Tracer(tracerName),
		metrics:  m,
	}
	if cfg.RefreshPerMin > 0 {
		s.limiter = ratelimit.New(cfg.RefreshPerMin)
	}
	s.snap = s.initialSnapshot()
	s.genCtx, s.genCancel = context.WithCancel(context.Background())

	return s, nil
}

func (s *Session) initialSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Session: domain.WalletSession{State: domain.NotInitialized},
		Account: domain.AccountState{SignCounter: s.cfg.SignTimeoutSec},
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Subscribe delivers every committed snapshot on ch.
func (s *Session) Subscribe(ch chan<- domain.Snapshot) event.Subscription {
	return s.feed.Subscribe(ch)
}

// transition applies fn under the session lock when gen is still current.
// fn can veto the write by returning false.
func (s *Session) transition(gen uint64, fn func(st *domain.Snapshot) bool) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return false
	}
	prev := s.snap.Session.State
	if !fn(&s.snap) {
		s.mu.Unlock()
		return false
	}
	snap := s.snap.Clone()
	s.mu.Unlock()

	if prev != snap.Session.State {
		s.metrics.phaseChanged(prev, snap.Session.State)
	}
	s.feed.Send(snap)
	return true
}

// set is transition without a veto.
func (s *Session) set(gen uint64, fn func(st *domain.Snapshot)) bool {
	return s.transition(gen, func(st *domain.Snapshot) bool {
		fn(st)
		return true
	})
}

// operation derives a context cancelled by either the caller or the next
// disconnect, and returns the generation it belongs to.
func (s *Session) operation(ctx context.Context) (context.Context, uint64, func()) {
	s.mu.Lock()
	gen, genCtx := s.gen, s.genCtx
	s.mu.Unlock()

	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(genCtx, cancel)
	return opCtx, gen, func() {
		stop()
		cancel()
	}
}

// command wraps a user command with a span, latency metric and the invalid
// state check. enter must validate and apply the first transition atomically.
func (s *Session) command(ctx context.Context, name string, enter func(st *domain.Snapshot) bool, run func(ctx context.Context, gen uint64)) error {
	ctx, span := s.tracer.Start(ctx, "wallet."+name)
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.commandDone(ctx, name, time.Since(start)) }()

	opCtx, gen, done := s.operation(ctx)
	defer done()

	if !s.transition(gen, enter) {
		snap := s.Snapshot()
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(name+" not allowed in "+snap.Session.State.String()))
	}

	run(opCtx, gen)
	return ctx.Err()
}

// Disconnect resets every sub-state, cancels in-flight work and listeners,
// and resets the provider. It is safe from any phase and idempotent.
func (s *Session) Disconnect(ctx context.Context) error {
	_, err := s.reset(ctx)
	return err
}

// reset is Disconnect returning the generation it opened.
func (s *Session) reset(ctx context.Context) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "wallet.Disconnect")
	defer span.End()

	s.emitMu.Lock()
	s.mu.Lock()
	prev := s.snap.Session.State
	var address string
	if s.snap.Account.Account != nil {
		address = s.snap.Account.Account.Address.Hex()
	}
	s.gen++
	gen := s.gen
	s.genCancel()
	s.genCtx, s.genCancel = context.WithCancel(context.Background())
	s.snap = s.initialSnapshot()
	s.selected = ""
	s.signCancel = nil
	s.accountListening = false
	s.networkListening = false
	snap := s.snap.Clone()
	s.mu.Unlock()

	if prev != domain.NotInitialized {
		s.metrics.phaseChanged(prev, domain.NotInitialized)
	}
	s.feed.Send(snap)
	s.emitMu.Unlock()

	if err := s.provider.Reset(ctx); err != nil {
		s.log.Warn(ctx, "provider reset failed", "error", err)
		s.set(gen, func(st *domain.Snapshot) { st.Session.Error = errorText(err) })
	}

	if address != "" && s.store != nil {
		if err := s.store.Delete(ctx, address); err != nil {
			s.log.Warn(ctx, "session delete failed", "address", address, "error", err)
		}
	}

	if prev != domain.NotInitialized {
		s.log.Info(ctx, "wallet disconnected", "from", prev.String())
	}
	return gen, ctx.Err()
}

// fail records err on the session and logs it.
func (s *Session) fail(ctx context.Context, gen uint64, step string, err error, fn func(st *domain.Snapshot)) {
	if errors.Is(err, context.Canceled) && s.stale(gen) {
		return
	}
	s.log.Warn(ctx, "wallet step failed", "step", step, "error", err)
	s.set(gen, func(st *domain.Snapshot) {
		fn(st)
		st.Session.Error = errorText(err)
	})
}

func (s *Session) stale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.gen
}

// errorText renders err for WalletSession.Error, keeping the raw cause.
func errorText(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if cause := appErr.Unwrap(); cause != nil {
			return appErr.Message + ": " + cause.Error()
		}
		return appErr.Message
	}
	return err.Error()
}

// messageFor returns the table message of code.
func messageFor(code apperror.Code) string {
	return apperror.MessageOf(apperror.New(code))
}
