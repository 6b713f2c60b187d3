package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/walletd/business/wallet/domain"
)

// startAccountListener subscribes to account changes once per generation.
func (s *Session) startAccountListener(gen uint64) {
	ctx, ok := s.claimListener(gen, &s.accountListening)
	if !ok {
		return
	}

	ch := make(chan common.Address, 1)
	sub, err := s.provider.ListenAccountChange(ch)
	if err != nil {
		s.log.Warn(ctx, "account listener unavailable", "error", err)
		s.releaseListener(gen, &s.accountListening)
		return
	}

	go func() {
		defer sub.Unsubscribe()

		select {
		case <-ctx.Done():
		case err := <-sub.Err():
			s.listenerClosed(ctx, "account", err)
		case addr := <-ch:
			if ctx.Err() != nil {
				return
			}
			s.log.Info(ctx, "account changed", "address", domain.ShortAddress(addr.Hex()))
			s.restart(ctx, "account", s.provider.HandleAccountChange)
		}
	}()
}

// startNetworkListener subscribes to chain changes once per generation.
func (s *Session) startNetworkListener(gen uint64) {
	ctx, ok := s.claimListener(gen, &s.networkListening)
	if !ok {
		return
	}

	ch := make(chan uint64, 1)
	sub, err := s.provider.ListenNetworkChange(ch)
	if err != nil {
		s.log.Warn(ctx, "network listener unavailable", "error", err)
		s.releaseListener(gen, &s.networkListening)
		return
	}

	go func() {
		defer sub.Unsubscribe()

		select {
		case <-ctx.Done():
		case err := <-sub.Err():
			s.listenerClosed(ctx, "network", err)
		case chainID := <-ch:
			if ctx.Err() != nil {
				return
			}
			s.log.Info(ctx, "network changed", "chain_id", chainID)
			s.restart(ctx, "network", nil)
		}
	}()
}

func (s *Session) claimListener(gen uint64, flag *bool) (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || *flag {
		return nil, false
	}
	*flag = true
	return s.genCtx, true
}

func (s *Session) releaseListener(gen uint64, flag *bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen == s.gen {
		*flag = false
	}
}

func (s *Session) listenerClosed(ctx context.Context, kind string, err error) {
	if err != nil {
		s.log.Warn(ctx, "change subscription closed", "listener", kind, "error", err)
	}
}

// restart disconnects, lets the provider react, then runs discovery again
// with the previously connected wallet preselected. Only the generation opened
// by its own disconnect may resume. It never waits on the
// calling listener, which exits once the disconnect cancels its context.
func (s *Session) restart(ctx context.Context, kind string, handle func(ctx context.Context) error) {
	s.metrics.listenerRestarted(ctx, kind)

	s.mu.Lock()
	wallet := s.selected
	s.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	gen, err := s.reset(bg)
	if err != nil {
		s.log.Warn(bg, "disconnect before restart failed", "error", err)
	}

	var handleErr error
	if handle != nil {
		handleErr = handle(bg)
	}

	// A disconnect while the provider handled the change wins.
	opCtx, opGen, done := s.operation(bg)
	defer done()
	if opGen != gen {
		return
	}

	if !s.transition(gen, func(st *domain.Snapshot) bool {
		if st.Session.State != domain.NotInitialized {
			return false
		}
		s.selected = wallet
		enterDetecting(st)
		return true
	}) {
		return
	}

	if handleErr != nil {
		s.log.Warn(opCtx, "provider failed to handle change", "listener", kind, "error", handleErr)
		s.set(gen, func(st *domain.Snapshot) { st.Session.Error = errorText(handleErr) })
	}

	s.detectWallets(opCtx, gen)
}
