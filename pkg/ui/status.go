package ui

import (
	"fmt"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/pkg/ui/components"
)

// phaseRows maps a snapshot onto the session tree.
func phaseRows(s domain.Snapshot) []components.PhaseRow {
	if s.Session.State == domain.NotInitialized {
		return nil
	}

	rows := []components.PhaseRow{
		{Name: "Session", Phase: s.Session.State.String(), Level: sessionLevel(s.Session.State)},
		providerRow(s.Provider),
	}
	if s.Session.State >= domain.CheckingAccount {
		rows = append(rows, accountRow(s.Account))
	}
	if s.Session.State >= domain.CheckingNetwork {
		rows = append(rows, networkRow(s.Network))
	}
	if s.Session.State >= domain.CheckingSign {
		rows = append(rows, signRow(s.Account))
	}
	return rows
}

func sessionLevel(p domain.WalletPhase) components.Level {
	if p == domain.Authenticated {
		return components.LevelOK
	}
	return components.LevelPending
}

func providerRow(p domain.ProviderState) components.PhaseRow {
	row := components.PhaseRow{Name: "Wallet", Phase: p.LoadState.String()}
	switch p.LoadState {
	case domain.ProviderInitialized:
		row.Level = components.LevelOK
		if p.ConnectedWallet != nil {
			row.Note = p.ConnectedWallet.Label
		}
	case domain.DetectingWallets, domain.ProviderRequested:
		row.Level = components.LevelPending
	case domain.WaitingWalletSelection:
		row.Level = components.LevelAttention
		row.Note = walletChoices(p.InstalledWallets)
	case domain.WalletDetectionFailed, domain.ProviderNotSupported, domain.ProviderFailed:
		row.Level = components.LevelFailed
		row.Note = "press c to retry"
	}
	return row
}

func accountRow(a domain.AccountState) components.PhaseRow {
	row := components.PhaseRow{Name: "Account", Phase: a.LoadState.String()}
	switch a.LoadState {
	case domain.AccountLoaded:
		row.Level = components.LevelOK
	case domain.AccountRequested, domain.UnlockRequested, domain.WaitingUnlock:
		row.Level = components.LevelPending
	case domain.Locked, domain.UnlockRejected:
		row.Level = components.LevelAttention
		row.Note = "press u to unlock"
	case domain.AccountDetectionFailed, domain.UnlockFailed:
		row.Level = components.LevelFailed
		row.Note = "press u to retry"
	}
	return row
}

func networkRow(n domain.NetworkState) components.PhaseRow {
	row := components.PhaseRow{Name: "Network", Phase: n.LoadState.String()}
	switch n.LoadState {
	case domain.NetworkLoaded:
		row.Level = components.LevelOK
		if n.Network != nil {
			row.Note = n.Network.Name
		}
	case domain.NetworkRequested, domain.NetworkSwitchRequested:
		row.Level = components.LevelPending
	case domain.WrongNetwork, domain.NetworkSwitchRejected:
		row.Level = components.LevelAttention
		row.Note = "pick a network and press n"
	case domain.NetworkDetectionFailed, domain.NetworkSwitchFailed:
		row.Level = components.LevelFailed
	}
	return row
}

func signRow(a domain.AccountState) components.PhaseRow {
	row := components.PhaseRow{Name: "Sign-in", Phase: a.SignState.String()}
	switch a.SignState {
	case domain.Signed:
		row.Level = components.LevelOK
	case domain.SignInitialized:
		row.Level = components.LevelPending
	case domain.SignRequested:
		row.Level = components.LevelPending
		row.Note = fmt.Sprintf("%ds left", a.SignCounter)
	case domain.NotSigned, domain.SignRejected, domain.SignTimedOut:
		row.Level = components.LevelAttention
		row.Note = "press s to sign in"
	case domain.SignFailed:
		row.Level = components.LevelFailed
		row.Note = "press s to retry"
	}
	return row
}

func walletChoices(wallets []domain.WalletDescriptor) string {
	var out string
	for i, w := range wallets {
		if i > 0 {
			out += "  "
		}
		out += fmt.Sprintf("%d:%s", i+1, w.Label)
	}
	return out
}

// accountInfo builds the account panel, nil before a wallet is loaded.
func accountInfo(s domain.Snapshot) *components.AccountInfo {
	if s.Provider.ConnectedWallet == nil && s.Account.Account == nil {
		return nil
	}

	info := &components.AccountInfo{
		SignCounter:  s.Account.SignCounter,
		SignDeadline: s.Account.SignState == domain.SignRequested,
		Refreshing:   s.Network.BlockInfoLoading,
	}
	if w := s.Provider.ConnectedWallet; w != nil {
		info.Wallet = w.Label
	}
	if a := s.Account.Account; a != nil {
		info.Address = a.ShortAddress
		info.DomainName = a.DomainName
		info.AvatarURL = a.AvatarURL
		info.AccessToken = a.AccessToken
	}
	if n := s.Network.Network; n != nil {
		info.Network = n.Name
		info.Symbol = n.NativeCurrency.Symbol
	}
	if b := s.Network.BlockInfo; b != nil {
		info.BlockNumber = b.BlockNumber
		info.Balance = b.SignerAccountBalance
	}
	return info
}

// changes describes the sub-machine transitions between two snapshots.
func changes(prev, next domain.Snapshot) []string {
	var out []string
	if prev.Session.State != next.Session.State {
		out = append(out, "Session → "+next.Session.State.String())
	}
	if prev.Provider.LoadState != next.Provider.LoadState {
		out = append(out, "Wallet → "+next.Provider.LoadState.String())
	}
	if prev.Account.LoadState != next.Account.LoadState {
		out = append(out, "Account → "+next.Account.LoadState.String())
	}
	if prev.Network.LoadState != next.Network.LoadState {
		out = append(out, "Network → "+next.Network.LoadState.String())
	}
	if prev.Account.SignState != next.Account.SignState {
		out = append(out, "Sign-in → "+next.Account.SignState.String())
	}
	if b := next.Network.BlockInfo; b != nil && (prev.Network.BlockInfo == nil || *prev.Network.BlockInfo != *b) {
		out = append(out, fmt.Sprintf("Block #%s", b.BlockNumber))
	}
	return out
}
