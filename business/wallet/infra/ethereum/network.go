package ethereum

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/event"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/apperror"
	"github.com/fd1az/walletd/internal/asset"
)

// LoadNetwork asks the current chain's RPC endpoint for its chain id and
// returns the matching network descriptor.
func (a *Adapter) LoadNetwork(ctx context.Context) (domain.Network, error) {
	ctx, span := a.tracer.StartSpanFromContext(ctx, "wallet.adapter.LoadNetwork")
	defer span.End()

	a.mu.Lock()
	chainID := a.chainID
	a.mu.Unlock()

	c, err := a.client(ctx, chainID)
	if err != nil {
		span.NoticeError(err)
		return domain.Network{ChainID: chainID}, err
	}

	reported, err := c.ChainID(ctx)
	if err != nil {
		span.NoticeError(err)
		return domain.Network{}, apperror.New(apperror.CodeNetworkDetectionFailed, apperror.WithCause(err))
	}
	span.SetAttributes(attribute.Int64("chain_id", int64(reported)))

	a.mu.Lock()
	a.loadedChain = reported
	a.mu.Unlock()

	network, ok := domain.FindNetwork(reported)
	if !ok {
		return domain.Network{ChainID: reported}, apperror.New(apperror.CodeNetworkNotSupported,
			apperror.WithContext("chain "+strconv.FormatUint(reported, 10)))
	}
	if url, ok := a.cfg.Networks.RPCURL(reported); ok {
		network = network.WithRPCURL(url)
	}
	return network, nil
}

// SwitchNetwork moves the wallet to chainID once the prompter approves.
func (a *Adapter) SwitchNetwork(ctx context.Context, chainID uint64) (bool, error) {
	ctx, span := a.tracer.StartSpanFromContext(ctx, "wallet.adapter.SwitchNetwork")
	defer span.End()

	network, ok := domain.FindNetwork(chainID)
	if !ok {
		return false, apperror.New(apperror.CodeNetworkNotSupported,
			apperror.WithContext("chain "+strconv.FormatUint(chainID, 10)))
	}

	if err := a.prompter.ApproveSwitch(ctx, network); err != nil {
		return false, promptError(err, apperror.CodeNetworkSwitchRejected, "switch network")
	}

	if _, err := a.client(ctx, chainID); err != nil {
		span.NoticeError(err)
		return false, apperror.New(apperror.CodeNetworkSwitchFailed, apperror.WithCause(err))
	}

	a.mu.Lock()
	a.chainID = chainID
	a.loadedChain = 0
	a.challenge = nil
	a.token = ""
	a.mu.Unlock()
	return true, nil
}

// ListenNetworkChange subscribes ch to chain id changes reported by the RPC endpoint.
func (a *Adapter) ListenNetworkChange(ch chan<- uint64) (event.Subscription, error) {
	return a.networkFeed.Subscribe(ch), nil
}

// GetLatestBlock returns the head block number of the current chain.
func (a *Adapter) GetLatestBlock(ctx context.Context) (uint64, error) {
	c, _, err := a.current(ctx)
	if err != nil {
		return 0, err
	}
	return c.BlockNumber(ctx)
}

// GetBalance returns the active account's native balance.
func (a *Adapter) GetBalance(ctx context.Context) (asset.Amount, error) {
	c, network, err := a.current(ctx)
	if err != nil {
		return asset.Amount{}, err
	}
	_, acc, _, err := a.active()
	if err != nil {
		return asset.Amount{}, err
	}

	bal, err := c.BalanceAt(ctx, acc.Address)
	if err != nil {
		return asset.Amount{}, err
	}
	return asset.NewAmount(network.Currency(), bal), nil
}

// IsDomainNameSupported reports whether a name registry is configured for chainID.
func (a *Adapter) IsDomainNameSupported(chainID uint64) bool {
	_, ok := a.cfg.Names.Registry(chainID)
	return ok
}

// GetDomainName returns the verified primary name of the active account, or
// "" when it has none.
func (a *Adapter) GetDomainName(ctx context.Context) (string, error) {
	ctx, span := a.tracer.StartSpanFromContext(ctx, "wallet.adapter.GetDomainName")
	defer span.End()

	c, network, err := a.current(ctx)
	if err != nil {
		return "", err
	}
	registry, ok := a.cfg.Names.Registry(network.ChainID)
	if !ok {
		return "", nil
	}
	_, acc, _, err := a.active()
	if err != nil {
		return "", err
	}

	name, err := a.names.ReverseName(ctx, c, registry, acc.Address)
	if err != nil {
		span.NoticeError(err)
	}
	return name, err
}

// GetAvatarURL returns the avatar text record of name.
func (a *Adapter) GetAvatarURL(ctx context.Context, name string) (string, error) {
	c, network, err := a.current(ctx)
	if err != nil {
		return "", err
	}
	registry, ok := a.cfg.Names.Registry(network.ChainID)
	if !ok || name == "" {
		return "", nil
	}
	return a.names.Text(ctx, c, registry, name, "avatar")
}

// current returns the client and descriptor of the loaded network.
func (a *Adapter) current(ctx context.Context) (*chainClient, domain.Network, error) {
	a.mu.Lock()
	chainID, loaded := a.chainID, a.loadedChain
	a.mu.Unlock()

	network, ok := domain.FindNetwork(loaded)
	if !ok {
		return nil, domain.Network{}, apperror.New(apperror.CodeNetworkNotSupported,
			apperror.WithContext("chain "+strconv.FormatUint(loaded, 10)))
	}
	c, err := a.client(ctx, chainID)
	if err != nil {
		return nil, domain.Network{}, err
	}
	return c, network, nil
}

// client returns the RPC client for chainID, dialing it on first use. The
// endpoint comes from the networks config, falling back to the network's
// public RPC URL.
func (a *Adapter) client(ctx context.Context, chainID uint64) (*chainClient, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.clients[chainID]; ok {
		return c, nil
	}

	url, ok := a.cfg.Networks.RPCURL(chainID)
	if !ok {
		network, found := domain.FindNetwork(chainID)
		if !found || len(network.RPCURLs) == 0 {
			return nil, apperror.New(apperror.CodeNetworkNotSupported,
				apperror.WithContext("no rpc endpoint for chain "+strconv.FormatUint(chainID, 10)))
		}
		url = network.RPCURLs[0]
	}

	c, err := dialChain(ctx, chainID, url, a.http, a.log)
	if err != nil {
		return nil, err
	}
	a.clients[chainID] = c
	a.log.Debug(ctx, "rpc client dialed", "chain_id", chainID, "url", url)
	return c, nil
}
