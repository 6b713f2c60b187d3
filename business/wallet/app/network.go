package app

import (
	"context"
	"strconv"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/apperror"
)

func (s *Session) loadNetwork(ctx context.Context, gen uint64) {
	if !s.set(gen, func(st *domain.Snapshot) {
		st.Session.State = domain.CheckingNetwork
		st.Network.LoadState = domain.NetworkRequested
	}) {
		return
	}

	if err := s.slowDown(ctx); err != nil {
		s.fail(ctx, gen, "loadNetwork", err, func(st *domain.Snapshot) {
			st.Network.LoadState = domain.NetworkDetectionFailed
		})
		return
	}

	network, err := s.provider.LoadNetwork(ctx)
	if err == nil {
		if _, ok := domain.FindNetwork(network.ChainID); !ok {
			err = apperror.New(apperror.CodeNetworkNotSupported,
				apperror.WithContext("chain "+strconv.FormatUint(network.ChainID, 10)))
		}
	}

	switch {
	case apperror.HasCode(err, apperror.CodeNetworkNotSupported):
		s.log.Info(ctx, "wallet on unsupported network", "error", err)
		s.set(gen, func(st *domain.Snapshot) {
			st.Network.LoadState = domain.WrongNetwork
			st.Network.Network = nil
			st.Session.Error = messageFor(apperror.CodeNetworkNotSupported)
		})
		return
	case err != nil:
		s.fail(ctx, gen, "loadNetwork", err, func(st *domain.Snapshot) {
			st.Network.LoadState = domain.NetworkDetectionFailed
		})
		return
	}

	if !s.set(gen, func(st *domain.Snapshot) {
		st.Network.LoadState = domain.NetworkLoaded
		st.Network.Network = &network
		st.Network.BlockInfo = nil
	}) {
		return
	}

	s.log.Info(ctx, "network loaded", "chain_id", network.ChainID, "name", network.Name)
	s.startNetworkListener(gen)
	s.waitSignIn(ctx, gen)
}

// SwitchNetwork asks the wallet to move to chainID. It is valid while the
// network sub-machine reports a wrong network or a failed switch. On success
// the session restarts at CheckingWallet.
func (s *Session) SwitchNetwork(ctx context.Context, chainID uint64) error {
	if _, ok := domain.FindNetwork(chainID); !ok {
		return apperror.New(apperror.CodeNetworkNotSupported,
			apperror.WithContext("chain "+strconv.FormatUint(chainID, 10)))
	}

	return s.command(ctx, "SwitchNetwork", func(st *domain.Snapshot) bool {
		if st.Session.State != domain.CheckingNetwork {
			return false
		}
		switch st.Network.LoadState {
		case domain.WrongNetwork, domain.NetworkSwitchRejected, domain.NetworkSwitchFailed:
		default:
			return false
		}
		st.Network.LoadState = domain.NetworkSwitchRequested
		st.Session.Error = ""
		return true
	}, func(ctx context.Context, gen uint64) {
		s.switchNetwork(ctx, gen, chainID)
	})
}

func (s *Session) switchNetwork(ctx context.Context, gen uint64, chainID uint64) {
	err := s.slowDown(ctx)
	ok := false
	if err == nil {
		ok, err = s.provider.SwitchNetwork(ctx, chainID)
	}

	switch {
	case err != nil && domain.Classify(err) == domain.FailureRejected:
		s.metrics.rejected(ctx, "switchNetwork")
		s.set(gen, func(st *domain.Snapshot) {
			st.Network.LoadState = domain.NetworkSwitchRejected
			st.Session.Error = messageFor(apperror.CodeNetworkSwitchRejected)
		})
		return
	case err != nil || !ok:
		if err != nil {
			s.log.Warn(ctx, "network switch failed", "chain_id", chainID, "error", err)
		}
		s.set(gen, func(st *domain.Snapshot) {
			st.Network.LoadState = domain.NetworkSwitchFailed
			st.Session.Error = messageFor(apperror.CodeNetworkSwitchFailed)
		})
		return
	}

	s.log.Info(ctx, "network switched", "chain_id", chainID)
	s.loadProvider(ctx, gen)
}

// RefreshLatestBlock reloads the latest block number and the signer balance.
// It is valid once the network is loaded and is rate limited.
func (s *Session) RefreshLatestBlock(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "wallet.RefreshLatestBlock")
	defer span.End()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
		}
	}

	opCtx, gen, done := s.operation(ctx)
	defer done()

	if !s.transition(gen, func(st *domain.Snapshot) bool {
		if st.Network.LoadState != domain.NetworkLoaded || st.Network.BlockInfoLoading {
			return false
		}
		st.Network.BlockInfoLoading = true
		return true
	}) {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext("RefreshLatestBlock"))
	}

	block, err := s.provider.GetLatestBlock(opCtx)
	if err != nil {
		s.fail(opCtx, gen, "getLatestBlock", err, func(st *domain.Snapshot) {
			st.Network.BlockInfoLoading = false
		})
		return ctx.Err()
	}

	balance, err := s.provider.GetBalance(opCtx)
	if err != nil {
		s.fail(opCtx, gen, "getBalance", err, func(st *domain.Snapshot) {
			st.Network.BlockInfoLoading = false
		})
		return ctx.Err()
	}

	info := domain.BlockInfo{
		BlockNumber:          strconv.FormatUint(block, 10),
		SignerAccountBalance: balance.ToDecimal().StringFixed(4),
	}
	s.set(gen, func(st *domain.Snapshot) {
		st.Network.BlockInfoLoading = false
		st.Network.BlockInfo = &info
	})
	return ctx.Err()
}
