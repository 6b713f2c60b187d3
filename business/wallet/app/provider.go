package app

import (
	"context"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/apperror"
)

// Connect starts wallet discovery. It is valid from NotInitialized and from
// any settled provider phase of CheckingWallet.
func (s *Session) Connect(ctx context.Context) error {
	return s.command(ctx, "Connect", func(st *domain.Snapshot) bool {
		if !canConnect(st) {
			return false
		}
		enterDetecting(st)
		return true
	}, func(ctx context.Context, gen uint64) {
		s.detectWallets(ctx, gen)
	})
}

func canConnect(st *domain.Snapshot) bool {
	switch st.Session.State {
	case domain.NotInitialized:
		return true
	case domain.CheckingWallet:
		switch st.Provider.LoadState {
		case domain.WalletDetectionFailed, domain.ProviderNotSupported, domain.ProviderFailed, domain.WaitingWalletSelection:
			return true
		}
	}
	return false
}

// SelectWallet continues a WaitingWalletSelection session with the named
// wallet. An empty name disconnects.
func (s *Session) SelectWallet(ctx context.Context, name domain.WalletName) error {
	if name == "" {
		return s.Disconnect(ctx)
	}

	return s.command(ctx, "SelectWallet", func(st *domain.Snapshot) bool {
		if st.Session.State != domain.CheckingWallet || st.Provider.LoadState != domain.WaitingWalletSelection {
			return false
		}
		if _, ok := findWallet(st.Provider.InstalledWallets, name); !ok {
			return false
		}
		s.selected = name
		st.Provider.LoadState = domain.ProviderRequested
		st.Session.Error = ""
		return true
	}, func(ctx context.Context, gen uint64) {
		s.requestProvider(ctx, gen, name)
	})
}

func enterDetecting(st *domain.Snapshot) {
	st.Session.State = domain.CheckingWallet
	st.Session.Error = ""
	st.Provider.LoadState = domain.DetectingWallets
	st.Provider.ConnectedWallet = nil
}

// loadProvider re-runs the provider sub-machine from the top.
func (s *Session) loadProvider(ctx context.Context, gen uint64) {
	if !s.set(gen, enterDetecting) {
		return
	}
	s.detectWallets(ctx, gen)
}

func (s *Session) detectWallets(ctx context.Context, gen uint64) {
	wallets, err := s.provider.DetectWallets(ctx)
	if err != nil {
		s.fail(ctx, gen, "detectWallets", err, func(st *domain.Snapshot) {
			st.Provider.LoadState = domain.WalletDetectionFailed
		})
		return
	}

	s.mu.Lock()
	selected := s.selected
	s.mu.Unlock()

	var name domain.WalletName
	switch {
	case len(wallets) == 0:
		s.set(gen, func(st *domain.Snapshot) {
			st.Provider.InstalledWallets = nil
			st.Provider.LoadState = domain.ProviderNotSupported
		})
		return
	case len(wallets) == 1:
		name = wallets[0].Name
	default:
		if _, ok := findWallet(wallets, selected); !ok {
			s.set(gen, func(st *domain.Snapshot) {
				st.Provider.InstalledWallets = wallets
				st.Provider.LoadState = domain.WaitingWalletSelection
			})
			return
		}
		name = selected
	}

	if !s.set(gen, func(st *domain.Snapshot) {
		st.Provider.InstalledWallets = wallets
		st.Provider.LoadState = domain.ProviderRequested
	}) {
		return
	}
	s.requestProvider(ctx, gen, name)
}

func (s *Session) requestProvider(ctx context.Context, gen uint64, name domain.WalletName) {
	if err := s.slowDown(ctx); err != nil {
		s.fail(ctx, gen, "loadProvider", err, func(st *domain.Snapshot) {
			st.Provider.LoadState = domain.ProviderFailed
		})
		return
	}

	ok, err := s.provider.LoadProvider(ctx, name)
	if err != nil {
		s.log.Warn(ctx, "wallet provider failed to load", "wallet", string(name), "error", err)
		s.set(gen, func(st *domain.Snapshot) {
			st.Provider.LoadState = domain.ProviderFailed
			st.Session.Error = messageFor(apperror.CodeWalletDetectionFailed)
		})
		return
	}
	if !ok {
		s.set(gen, func(st *domain.Snapshot) {
			st.Provider.LoadState = domain.ProviderNotSupported
		})
		return
	}

	if !s.set(gen, func(st *domain.Snapshot) {
		desc, found := findWallet(st.Provider.InstalledWallets, name)
		if !found {
			desc = domain.WalletDescriptor{Name: name, Label: string(name)}
		}
		s.selected = name
		st.Provider.ConnectedWallet = &desc
		st.Provider.LoadState = domain.ProviderInitialized
	}) {
		return
	}

	s.log.Info(ctx, "wallet provider initialized", "wallet", string(name))
	s.loadAccount(ctx, gen)
}

func findWallet(wallets []domain.WalletDescriptor, name domain.WalletName) (domain.WalletDescriptor, bool) {
	if name == "" {
		return domain.WalletDescriptor{}, false
	}
	for _, w := range wallets {
		if w.Name == name {
			return w, true
		}
	}
	return domain.WalletDescriptor{}, false
}
