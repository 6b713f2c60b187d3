package app

import (
	"context"
	"time"

	"github.com/fd1az/walletd/business/wallet/domain"
)

// onAuthenticated starts the account listener, kicks off name enrichment and
// persists the session.
func (s *Session) onAuthenticated(ctx context.Context, gen uint64, account domain.Account, network domain.Network, wallet domain.WalletName) {
	s.startAccountListener(gen)

	if s.provider.IsDomainNameSupported(network.ChainID) {
		s.mu.Lock()
		genCtx := s.genCtx
		s.mu.Unlock()
		go s.enrichProfile(genCtx, gen)
	}

	if s.store == nil {
		return
	}
	rec := domain.SessionRecord{
		Address:         account.Address.Hex(),
		ChainID:         network.ChainID,
		Wallet:          wallet,
		AccessToken:     account.AccessToken,
		AuthenticatedAt: time.Now().UTC(),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		s.log.Warn(ctx, "session save failed", "address", account.ShortAddress, "error", err)
	}
}

// enrichProfile resolves the account's domain name and avatar. Failures are
// reported on the session but never affect authentication.
func (s *Session) enrichProfile(ctx context.Context, gen uint64) {
	ctx, span := s.tracer.Start(ctx, "wallet.enrichProfile")
	defer span.End()

	name, err := s.provider.GetDomainName(ctx)
	if err != nil {
		s.fail(ctx, gen, "getDomainName", err, func(*domain.Snapshot) {})
		return
	}
	if name == "" {
		return
	}

	if !s.setProfile(gen, func(a *domain.Account) { a.DomainName = name }) {
		return
	}

	avatar, err := s.provider.GetAvatarURL(ctx, name)
	if err != nil {
		s.fail(ctx, gen, "getAvatarURL", err, func(*domain.Snapshot) {})
		return
	}
	if avatar != "" {
		s.setProfile(gen, func(a *domain.Account) { a.AvatarURL = avatar })
	}
}

func (s *Session) setProfile(gen uint64, fn func(a *domain.Account)) bool {
	return s.transition(gen, func(st *domain.Snapshot) bool {
		if st.Account.Account == nil {
			return false
		}
		fn(st.Account.Account)
		return true
	})
}
