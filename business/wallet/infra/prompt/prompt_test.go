package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/walletd/business/wallet/domain"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()
	addr := common.HexToAddress("0x01")
	eth, _ := domain.FindNetwork(1)

	tests := []struct {
		name        string
		passphrase  string
		autoApprove bool
		wantPass    error
		wantApprove error
	}{
		{"configured", "secret", true, nil, nil},
		{"no passphrase", "", true, ErrRejected, nil},
		{"manual approval", "secret", false, nil, ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewStatic(tt.passphrase, tt.autoApprove)

			pass, err := p.Passphrase(ctx, domain.MetaMask, addr)
			if !errors.Is(err, tt.wantPass) {
				t.Errorf("Passphrase error = %v, want %v", err, tt.wantPass)
			}
			if err == nil && pass != tt.passphrase {
				t.Errorf("Passphrase = %q, want %q", pass, tt.passphrase)
			}
			if err := p.ApproveSign(ctx, addr, "msg"); !errors.Is(err, tt.wantApprove) {
				t.Errorf("ApproveSign error = %v, want %v", err, tt.wantApprove)
			}
			if err := p.ApproveSwitch(ctx, eth); !errors.Is(err, tt.wantApprove) {
				t.Errorf("ApproveSwitch error = %v, want %v", err, tt.wantApprove)
			}
		})
	}
}

func TestStatic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewStatic("secret", true)
	if _, err := p.Passphrase(ctx, domain.MetaMask, common.Address{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
