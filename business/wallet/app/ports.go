// Package app contains the wallet session state machine and its port definitions.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/asset"
)

// ProviderAPI discovers and initializes wallets.
type ProviderAPI interface {
	// DetectWallets lists the wallets available to the session.
	DetectWallets(ctx context.Context) ([]domain.WalletDescriptor, error)

	// LoadProvider initializes the named wallet. It reports false when the
	// wallet cannot be used.
	LoadProvider(ctx context.Context, name domain.WalletName) (bool, error)
}

// AccountAPI covers unlock, sign-in and profile lookups of the connected wallet.
type AccountAPI interface {
	IsUnlocked(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
	IsSigned(ctx context.Context) (bool, error)
	PrepareSignMessage(ctx context.Context, statement string) (string, error)
	Sign(ctx context.Context, prepared string) error
	GetAccount(ctx context.Context) (domain.Account, error)

	IsDomainNameSupported(chainID uint64) bool
	GetDomainName(ctx context.Context) (string, error)
	GetAvatarURL(ctx context.Context, name string) (string, error)

	// ListenAccountChange delivers the newly selected address on ch.
	ListenAccountChange(ch chan<- common.Address) (event.Subscription, error)
	HandleAccountChange(ctx context.Context) error
	Reset(ctx context.Context) error
}

// NetworkAPI covers chain detection, switching and block queries.
type NetworkAPI interface {
	// LoadNetwork returns the wallet's current network. Chains outside the
	// supported list are reported with apperror.CodeNetworkNotSupported.
	LoadNetwork(ctx context.Context) (domain.Network, error)
	SwitchNetwork(ctx context.Context, chainID uint64) (bool, error)

	// ListenNetworkChange delivers the new chain id on ch.
	ListenNetworkChange(ch chan<- uint64) (event.Subscription, error)

	GetLatestBlock(ctx context.Context) (uint64, error)
	GetBalance(ctx context.Context) (asset.Amount, error)
}

// WalletProvider is the complete wallet contract consumed by Session.
type WalletProvider interface {
	ProviderAPI
	AccountAPI
	NetworkAPI
}

// SessionStore persists authenticated sessions.
type SessionStore interface {
	Save(ctx context.Context, rec domain.SessionRecord) error
	Get(ctx context.Context, address string) (domain.SessionRecord, error)
	Delete(ctx context.Context, address string) error
}
