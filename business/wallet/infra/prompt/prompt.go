// Package prompt defines how the wallet adapter asks the user to approve
// unlocks, signatures and network switches.
package prompt

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/walletd/business/wallet/domain"
)

var (
	// ErrRejected means the user declined the request.
	ErrRejected = errors.New("request rejected by user")
	// ErrPending means another prompt is still waiting for an answer.
	ErrPending = errors.New("another request is pending")
)

// Prompter asks the user for wallet approvals. Implementations block until
// the user answers or ctx ends.
type Prompter interface {
	Passphrase(ctx context.Context, wallet domain.WalletName, account common.Address) (string, error)
	ApproveSign(ctx context.Context, account common.Address, message string) error
	ApproveSwitch(ctx context.Context, network domain.Network) error
}

// Static answers every prompt from configuration, for headless runs.
type Static struct {
	passphrase  string
	autoApprove bool
}

// NewStatic returns a prompter that unlocks with passphrase and approves
// sign and switch requests only when autoApprove is set.
func NewStatic(passphrase string, autoApprove bool) *Static {
	return &Static{passphrase: passphrase, autoApprove: autoApprove}
}

func (s *Static) Passphrase(ctx context.Context, _ domain.WalletName, _ common.Address) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.passphrase == "" {
		return "", ErrRejected
	}
	return s.passphrase, nil
}

func (s *Static) ApproveSign(ctx context.Context, _ common.Address, _ string) error {
	return s.approve(ctx)
}

func (s *Static) ApproveSwitch(ctx context.Context, _ domain.Network) error {
	return s.approve(ctx)
}

func (s *Static) approve(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.autoApprove {
		return ErrRejected
	}
	return nil
}
