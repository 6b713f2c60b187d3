package app

import (
	"context"
	"time"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/apperror"
)

func (s *Session) waitSignIn(ctx context.Context, gen uint64) {
	var attempt uint64
	if !s.set(gen, func(st *domain.Snapshot) {
		attempt = s.signAttempt
		st.Session.State = domain.CheckingSign
		st.Account.SignState = domain.NotSigned
		st.Account.SignCounter = s.cfg.SignTimeoutSec
	}) {
		return
	}

	if s.cfg.DisableSign {
		s.completeSignIn(ctx, gen, attempt, domain.NotSigned)
	}
}

// SignIn runs the challenge round-trip with statement as the message body.
// The wallet has SignTimeoutSec ticks to answer before the attempt times out.
func (s *Session) SignIn(ctx context.Context, statement string) error {
	return s.command(ctx, "SignIn", func(st *domain.Snapshot) bool {
		if st.Session.State != domain.CheckingSign {
			return false
		}
		switch st.Account.SignState {
		case domain.NotSigned, domain.SignRejected, domain.SignTimedOut, domain.SignFailed:
		default:
			return false
		}
		st.Account.SignState = domain.SignInitialized
		st.Session.Error = ""
		return true
	}, func(ctx context.Context, gen uint64) {
		s.signIn(ctx, gen, statement)
	})
}

func (s *Session) signIn(ctx context.Context, gen uint64, statement string) {
	err := s.slowDown(ctx)
	var prepared string
	if err == nil {
		prepared, err = s.provider.PrepareSignMessage(ctx, statement)
	}
	if err != nil {
		s.fail(ctx, gen, "prepareSignMessage", err, func(st *domain.Snapshot) {
			st.Account.SignState = domain.SignFailed
		})
		return
	}

	signCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var attempt uint64
	if !s.transition(gen, func(st *domain.Snapshot) bool {
		if st.Session.State != domain.CheckingSign || st.Account.SignState != domain.SignInitialized {
			return false
		}
		s.signAttempt++
		attempt = s.signAttempt
		s.signCancel = cancel
		st.Account.SignState = domain.SignRequested
		st.Account.SignCounter = s.cfg.SignTimeoutSec
		return true
	}) {
		return
	}

	s.mu.Lock()
	genCtx := s.genCtx
	s.mu.Unlock()
	go s.watchdog(genCtx, gen, attempt)

	err = s.provider.Sign(signCtx, prepared)
	if err != nil {
		rejected := domain.Classify(err) == domain.FailureRejected
		if s.transition(gen, func(st *domain.Snapshot) bool {
			if !s.awaitingSignature(st, attempt, domain.SignRequested) {
				return false
			}
			s.signCancel = nil
			if rejected {
				st.Account.SignState = domain.SignRejected
				st.Session.Error = messageFor(apperror.CodeSignRejected)
			} else {
				st.Account.SignState = domain.SignFailed
				st.Session.Error = errorText(err)
			}
			return true
		}) {
			if rejected {
				s.metrics.rejected(ctx, "sign")
			} else {
				s.log.Warn(ctx, "sign failed", "error", err)
			}
		}
		return
	}

	signed, err := s.provider.IsSigned(ctx)
	if err != nil || !signed {
		if err == nil {
			err = apperror.New(apperror.CodeSignatureInvalid)
		}
		s.transition(gen, func(st *domain.Snapshot) bool {
			if !s.awaitingSignature(st, attempt, domain.SignRequested) {
				return false
			}
			s.signCancel = nil
			st.Account.SignState = domain.SignFailed
			st.Session.Error = errorText(err)
			return true
		})
		return
	}

	s.completeSignIn(ctx, gen, attempt, domain.SignRequested)
}

// awaitingSignature reports whether attempt is still the live sign attempt in
// phase expect. Callers hold the session lock.
func (s *Session) awaitingSignature(st *domain.Snapshot, attempt uint64, expect domain.AccountSignPhase) bool {
	return st.Session.State == domain.CheckingSign &&
		st.Account.SignState == expect &&
		s.signAttempt == attempt
}

// completeSignIn loads the account and commits Signed plus Authenticated if
// the attempt is still live.
func (s *Session) completeSignIn(ctx context.Context, gen uint64, attempt uint64, expect domain.AccountSignPhase) {
	account, err := s.provider.GetAccount(ctx)
	if err != nil {
		s.transition(gen, func(st *domain.Snapshot) bool {
			if !s.awaitingSignature(st, attempt, expect) {
				return false
			}
			s.signCancel = nil
			st.Account.SignState = domain.SignFailed
			st.Session.Error = errorText(err)
			return true
		})
		s.log.Warn(ctx, "account load failed", "error", err)
		return
	}

	var network domain.Network
	var wallet domain.WalletName
	if !s.transition(gen, func(st *domain.Snapshot) bool {
		if !s.awaitingSignature(st, attempt, expect) {
			return false
		}
		s.signCancel = nil
		st.Account.SignState = domain.Signed
		st.Account.SignCounter = s.cfg.SignTimeoutSec
		st.Account.Account = &account
		st.Session.State = domain.Authenticated
		st.Session.Error = ""
		if st.Network.Network != nil {
			network = *st.Network.Network
		}
		if st.Provider.ConnectedWallet != nil {
			wallet = st.Provider.ConnectedWallet.Name
		}
		return true
	}) {
		return
	}

	s.log.Info(ctx, "wallet authenticated", "address", account.ShortAddress, "chain_id", network.ChainID)
	s.onAuthenticated(ctx, gen, account, network, wallet)
}

// watchdog counts down the live sign attempt once per tick. At zero it forces
// SignTimedOut and cancels the pending sign call.
func (s *Session) watchdog(ctx context.Context, gen uint64, attempt uint64) {
	ticker := time.NewTicker(s.cfg.SignTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var cancel context.CancelFunc
		expired := false
		alive := s.transition(gen, func(st *domain.Snapshot) bool {
			if !s.awaitingSignature(st, attempt, domain.SignRequested) {
				return false
			}
			st.Account.SignCounter--
			if st.Account.SignCounter <= 0 {
				st.Account.SignState = domain.SignTimedOut
				st.Account.SignCounter = s.cfg.SignTimeoutSec
				st.Session.Error = messageFor(apperror.CodeSignTimedOut)
				cancel, s.signCancel = s.signCancel, nil
				expired = true
			}
			return true
		})

		if cancel != nil {
			cancel()
		}
		if expired {
			s.metrics.signTimedOut(ctx)
			s.log.Warn(ctx, "sign request timed out", "timeout_sec", s.cfg.SignTimeoutSec)
		}
		if !alive || expired {
			return
		}
	}
}
