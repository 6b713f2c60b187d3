package ui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/business/wallet/infra/prompt"
)

// Prompter shows wallet requests in the dashboard and waits for the user.
// One prompt is open at a time.
type Prompter struct {
	send func(tea.Msg)

	mu      sync.Mutex
	pending bool
	seq     uint64
}

// NewPrompter delivers prompts through send, usually Send.
func NewPrompter(send func(tea.Msg)) *Prompter {
	return &Prompter{send: send}
}

func (p *Prompter) Passphrase(ctx context.Context, wallet domain.WalletName, account common.Address) (string, error) {
	label := string(wallet)
	if desc, ok := domain.LookupWallet(wallet); ok {
		label = desc.Label
	}
	return p.ask(ctx, PromptPassphrase,
		fmt.Sprintf("Unlock %s", label),
		fmt.Sprintf("Passphrase for %s", account.Hex()))
}

func (p *Prompter) ApproveSign(ctx context.Context, account common.Address, message string) error {
	_, err := p.ask(ctx, PromptSign,
		fmt.Sprintf("Sign in with %s", domain.ShortAddress(account.Hex())),
		message)
	return err
}

func (p *Prompter) ApproveSwitch(ctx context.Context, network domain.Network) error {
	_, err := p.ask(ctx, PromptSwitch,
		"Switch network",
		fmt.Sprintf("Allow switching to %s (chain %d)?", network.Name, network.ChainID))
	return err
}

func (p *Prompter) ask(ctx context.Context, kind PromptKind, title, detail string) (string, error) {
	p.mu.Lock()
	if p.pending {
		p.mu.Unlock()
		return "", prompt.ErrPending
	}
	p.pending = true
	p.seq++
	id := p.seq
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.pending = false
		p.mu.Unlock()
	}()

	reply := make(chan answer, 1)
	p.send(PromptMsg{ID: id, Kind: kind, Title: title, Detail: detail, reply: reply})

	select {
	case a := <-reply:
		if !a.approved {
			return "", prompt.ErrRejected
		}
		return a.value, nil
	case <-ctx.Done():
		p.send(PromptDoneMsg{ID: id})
		return "", ctx.Err()
	}
}
