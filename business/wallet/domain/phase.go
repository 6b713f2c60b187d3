// Package domain contains the wallet session model: phases, snapshots and
// the static network and wallet descriptors.
package domain

import "fmt"

// WalletPhase is the top-level phase of a wallet session.
type WalletPhase int

const (
	NotInitialized WalletPhase = iota
	CheckingWallet
	CheckingAccount
	CheckingNetwork
	CheckingSign
	Authenticated
)

var walletPhaseNames = [...]string{"NotInitialized", "CheckingWallet", "CheckingAccount", "CheckingNetwork", "CheckingSign", "Authenticated"}

func (p WalletPhase) String() string { return phaseName(walletPhaseNames[:], int(p)) }

// MarshalText encodes the phase by name.
func (p WalletPhase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a phase name.
func (p *WalletPhase) UnmarshalText(b []byte) error {
	i, err := parsePhase(walletPhaseNames[:], string(b))
	*p = WalletPhase(i)
	return err
}

// ProviderLoadPhase tracks wallet discovery and provider initialization.
type ProviderLoadPhase int

const (
	ProviderIdle ProviderLoadPhase = iota
	DetectingWallets
	WalletDetectionFailed
	WaitingWalletSelection
	ProviderRequested
	ProviderNotSupported
	ProviderFailed
	ProviderInitialized
)

var providerPhaseNames = [...]string{"Idle", "DetectingWallets", "WalletDetectionFailed", "WaitingWalletSelection", "Requested", "NotSupported", "Failed", "Initialized"}

func (p ProviderLoadPhase) String() string { return phaseName(providerPhaseNames[:], int(p)) }

// MarshalText encodes the phase by name.
func (p ProviderLoadPhase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a phase name.
func (p *ProviderLoadPhase) UnmarshalText(b []byte) error {
	i, err := parsePhase(providerPhaseNames[:], string(b))
	*p = ProviderLoadPhase(i)
	return err
}

// AccountLoadPhase tracks unlock and account loading.
type AccountLoadPhase int

const (
	AccountIdle AccountLoadPhase = iota
	AccountRequested
	AccountDetectionFailed
	Locked
	UnlockRequested
	UnlockRejected
	WaitingUnlock
	UnlockFailed
	AccountLoaded
)

var accountPhaseNames = [...]string{"Idle", "AccountRequested", "AccountDetectionFailed", "Locked", "UnlockRequested", "UnlockRejected", "WaitingUnlock", "UnlockFailed", "AccountLoaded"}

func (p AccountLoadPhase) String() string { return phaseName(accountPhaseNames[:], int(p)) }

// MarshalText encodes the phase by name.
func (p AccountLoadPhase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a phase name.
func (p *AccountLoadPhase) UnmarshalText(b []byte) error {
	i, err := parsePhase(accountPhaseNames[:], string(b))
	*p = AccountLoadPhase(i)
	return err
}

// AccountSignPhase tracks the sign-in challenge.
type AccountSignPhase int

const (
	SignIdle AccountSignPhase = iota
	NotSigned
	SignInitialized
	SignRequested
	SignRejected
	SignTimedOut
	SignFailed
	Signed
)

var signPhaseNames = [...]string{"Idle", "NotSigned", "SignInitialized", "SignRequested", "SignRejected", "SignTimedOut", "SignFailed", "Signed"}

func (p AccountSignPhase) String() string { return phaseName(signPhaseNames[:], int(p)) }

// MarshalText encodes the phase by name.
func (p AccountSignPhase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a phase name.
func (p *AccountSignPhase) UnmarshalText(b []byte) error {
	i, err := parsePhase(signPhaseNames[:], string(b))
	*p = AccountSignPhase(i)
	return err
}

// NetworkLoadPhase tracks chain detection and switching.
type NetworkLoadPhase int

const (
	NetworkIdle NetworkLoadPhase = iota
	NetworkRequested
	NetworkDetectionFailed
	WrongNetwork
	NetworkSwitchRequested
	NetworkSwitchRejected
	NetworkSwitchFailed
	NetworkLoaded
)

var networkPhaseNames = [...]string{"Idle", "NetworkRequested", "NetworkDetectionFailed", "WrongNetwork", "NetworkSwitchRequested", "NetworkSwitchRejected", "NetworkSwitchFailed", "NetworkLoaded"}

func (p NetworkLoadPhase) String() string { return phaseName(networkPhaseNames[:], int(p)) }

// MarshalText encodes the phase by name.
func (p NetworkLoadPhase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a phase name.
func (p *NetworkLoadPhase) UnmarshalText(b []byte) error {
	i, err := parsePhase(networkPhaseNames[:], string(b))
	*p = NetworkLoadPhase(i)
	return err
}

func parsePhase(names []string, name string) (int, error) {
	for i, n := range names {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

func phaseName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("Phase(%d)", i)
	}
	return names[i]
}
