package app

import (
	"context"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/apperror"
)

func (s *Session) loadAccount(ctx context.Context, gen uint64) {
	if !s.set(gen, func(st *domain.Snapshot) {
		st.Session.State = domain.CheckingAccount
		st.Account.LoadState = domain.AccountRequested
	}) {
		return
	}

	if err := s.slowDown(ctx); err != nil {
		s.fail(ctx, gen, "loadAccount", err, func(st *domain.Snapshot) {
			st.Account.LoadState = domain.Locked
		})
		return
	}

	unlocked, err := s.provider.IsUnlocked(ctx)
	if err != nil || !unlocked {
		s.set(gen, func(st *domain.Snapshot) {
			st.Account.LoadState = domain.Locked
			if err != nil {
				st.Session.Error = errorText(err)
			}
		})
		return
	}

	if !s.set(gen, func(st *domain.Snapshot) {
		st.Account.LoadState = domain.AccountLoaded
	}) {
		return
	}
	s.loadNetwork(ctx, gen)
}

// UnlockWallet asks the wallet to unlock. It is valid while the account
// sub-machine waits on a locked wallet.
func (s *Session) UnlockWallet(ctx context.Context) error {
	return s.command(ctx, "UnlockWallet", func(st *domain.Snapshot) bool {
		if st.Session.State != domain.CheckingAccount {
			return false
		}
		switch st.Account.LoadState {
		case domain.Locked, domain.UnlockRejected, domain.UnlockFailed, domain.WaitingUnlock:
		default:
			return false
		}
		st.Account.LoadState = domain.UnlockRequested
		st.Session.Error = ""
		return true
	}, s.unlock)
}

func (s *Session) unlock(ctx context.Context, gen uint64) {
	err := s.slowDown(ctx)
	if err == nil {
		err = s.provider.Unlock(ctx)
	}
	if err != nil {
		switch domain.Classify(err) {
		case domain.FailureRejected:
			s.metrics.rejected(ctx, "unlock")
			s.set(gen, func(st *domain.Snapshot) {
				st.Account.LoadState = domain.UnlockRejected
				st.Session.Error = messageFor(apperror.CodeRequestRejected)
			})
		case domain.FailureAlreadyProcessing:
			s.set(gen, func(st *domain.Snapshot) {
				st.Account.LoadState = domain.WaitingUnlock
				st.Session.Error = messageFor(apperror.CodeRequestPending)
			})
		default:
			s.fail(ctx, gen, "unlock", err, func(st *domain.Snapshot) {
				st.Account.LoadState = domain.UnlockFailed
			})
		}
		return
	}

	unlocked, err := s.provider.IsUnlocked(ctx)
	loaded := s.transition(gen, func(st *domain.Snapshot) bool {
		if st.Session.State != domain.CheckingAccount || st.Account.LoadState != domain.UnlockRequested {
			return false
		}
		switch {
		case err != nil:
			st.Account.LoadState = domain.UnlockFailed
			st.Session.Error = errorText(err)
			return true
		case !unlocked:
			st.Account.LoadState = domain.UnlockFailed
			st.Session.Error = messageFor(apperror.CodeWalletUnlockFailed)
			return true
		}
		st.Account.LoadState = domain.AccountLoaded
		return true
	}) && err == nil && unlocked

	if loaded {
		s.log.Info(ctx, "wallet unlocked")
		s.loadNetwork(ctx, gen)
	}
}
