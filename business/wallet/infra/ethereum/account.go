package ethereum

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/apperror"
)

// IsUnlocked reports whether the active account's key is decrypted.
func (a *Adapter) IsUnlocked(context.Context) (bool, error) {
	ks, acc, _, err := a.active()
	if err != nil {
		return false, err
	}
	for _, w := range ks.Wallets() {
		if !w.Contains(acc) {
			continue
		}
		status, err := w.Status()
		if err != nil {
			return false, apperror.New(apperror.CodeWalletLocked, apperror.WithCause(err))
		}
		return status == "Unlocked", nil
	}
	return false, apperror.New(apperror.CodeWalletNotFound, apperror.WithContext(acc.Address.Hex()))
}

// Unlock asks the prompter for the passphrase and decrypts the active key.
func (a *Adapter) Unlock(ctx context.Context) error {
	ctx, span := a.tracer.StartSpanFromContext(ctx, "wallet.adapter.Unlock")
	defer span.End()

	ks, acc, wallet, err := a.active()
	if err != nil {
		return err
	}

	pass, err := a.prompter.Passphrase(ctx, wallet, acc.Address)
	if err != nil {
		return promptError(err, apperror.CodeRequestRejected, "unlock")
	}

	if err := ks.Unlock(acc, pass); err != nil {
		span.NoticeError(err)
		if errors.Is(err, keystore.ErrDecrypt) {
			return apperror.New(apperror.CodeWalletUnlockFailed, apperror.WithCause(err))
		}
		return apperror.New(apperror.CodeWalletUnlockFailed, apperror.WithCause(err), apperror.WithContext(acc.Address.Hex()))
	}
	return nil
}

// GetAccount returns the active account. AccessToken is set once a sign-in
// challenge has been verified.
func (a *Adapter) GetAccount(context.Context) (domain.Account, error) {
	_, acc, _, err := a.active()
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.NewAccount(acc.Address)
	a.mu.Lock()
	account.AccessToken = a.token
	a.mu.Unlock()
	return account, nil
}

// Accounts lists the addresses held by the active keystore.
func (a *Adapter) Accounts(context.Context) ([]common.Address, error) {
	ks, _, _, err := a.active()
	if err != nil {
		return nil, err
	}
	var out []common.Address
	for _, acc := range ks.Accounts() {
		out = append(out, acc.Address)
	}
	return out, nil
}

// SelectAccount makes addr the active account. The change is delivered to
// account listeners, which restart the session on it.
func (a *Adapter) SelectAccount(ctx context.Context, addr common.Address) error {
	ks, acc, _, err := a.active()
	if err != nil {
		return err
	}
	if acc.Address == addr {
		return nil
	}
	if !ks.HasAddress(addr) {
		return apperror.New(apperror.CodeWalletNotFound, apperror.WithContext(addr.Hex()))
	}

	a.mu.Lock()
	a.requested = addr
	a.mu.Unlock()

	a.log.Info(ctx, "account selected", "address", domain.ShortAddress(addr.Hex()))
	a.accountFeed.Send(addr)
	return nil
}

// ListenAccountChange subscribes ch to account changes.
func (a *Adapter) ListenAccountChange(ch chan<- common.Address) (event.Subscription, error) {
	return a.accountFeed.Subscribe(ch), nil
}

// HandleAccountChange runs after Reset on an account change. The requested
// account stays queued for the next LoadProvider.
func (a *Adapter) HandleAccountChange(ctx context.Context) error {
	a.mu.Lock()
	requested := a.requested
	a.challenge = nil
	a.token = ""
	a.mu.Unlock()

	a.log.Debug(ctx, "account change handled", "requested", domain.ShortAddress(requested.Hex()))
	return nil
}
