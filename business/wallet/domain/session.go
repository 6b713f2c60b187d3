package domain

import "time"

// WalletSession is the top-level session state.
type WalletSession struct {
	State WalletPhase `json:"state"`
	Error string      `json:"error,omitempty"`
}

// ProviderState holds wallet discovery results.
type ProviderState struct {
	LoadState        ProviderLoadPhase  `json:"loadState"`
	InstalledWallets []WalletDescriptor `json:"installedWallets,omitempty"`
	ConnectedWallet  *WalletDescriptor  `json:"connectedWallet,omitempty"`
}

// AccountState holds unlock and sign-in progress plus the loaded account.
type AccountState struct {
	LoadState   AccountLoadPhase `json:"loadState"`
	SignState   AccountSignPhase `json:"signState"`
	SignCounter int              `json:"signCounter"`
	Account     *Account         `json:"account,omitempty"`
}

// NetworkState holds the detected network and the last block refresh.
type NetworkState struct {
	LoadState        NetworkLoadPhase `json:"loadState"`
	Network          *Network         `json:"network,omitempty"`
	BlockInfoLoading bool             `json:"blockInfoLoading"`
	BlockInfo        *BlockInfo       `json:"blockInfo,omitempty"`
}

// BlockInfo is the result of a latest block refresh.
type BlockInfo struct {
	BlockNumber          string `json:"blockNumber"`
	SignerAccountBalance string `json:"signerAccountBalance"`
}

// Snapshot is a read-only copy of every sub-state at one instant.
type Snapshot struct {
	Session  WalletSession `json:"session"`
	Provider ProviderState `json:"provider"`
	Account  AccountState  `json:"account"`
	Network  NetworkState  `json:"network"`
}

// Clone returns a deep copy that shares no pointers with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Provider.InstalledWallets != nil {
		out.Provider.InstalledWallets = append([]WalletDescriptor(nil), s.Provider.InstalledWallets...)
	}
	if s.Provider.ConnectedWallet != nil {
		w := *s.Provider.ConnectedWallet
		out.Provider.ConnectedWallet = &w
	}
	if s.Account.Account != nil {
		a := *s.Account.Account
		out.Account.Account = &a
	}
	if s.Network.Network != nil {
		n := *s.Network.Network
		out.Network.Network = &n
	}
	if s.Network.BlockInfo != nil {
		b := *s.Network.BlockInfo
		out.Network.BlockInfo = &b
	}
	return out
}

// SessionRecord is the persisted form of an authenticated session.
type SessionRecord struct {
	Address         string     `json:"address"`
	ChainID         uint64     `json:"chainId"`
	Wallet          WalletName `json:"wallet"`
	AccessToken     string     `json:"accessToken,omitempty"`
	AuthenticatedAt time.Time  `json:"authenticatedAt"`
}
