package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// AccountInfo holds the loaded account for display.
type AccountInfo struct {
	Wallet       string
	Address      string
	DomainName   string
	AvatarURL    string
	AccessToken  string
	Network      string
	Symbol       string
	BlockNumber  string
	Balance      string
	Refreshing   bool
	SignCounter  int
	SignDeadline bool
}

// AccountComponent renders the account panel.
type AccountComponent struct {
	info *AccountInfo
}

func NewAccountComponent() *AccountComponent {
	return &AccountComponent{}
}

// Update sets the account; nil clears the panel.
func (a *AccountComponent) Update(info *AccountInfo) {
	a.info = info
}

// View renders the account panel.
func (a *AccountComponent) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)

	var b strings.Builder
	b.WriteString(header.Render("ACCOUNT"))
	b.WriteString("\n\n")

	if a.info == nil {
		b.WriteString(label.Render("  No account loaded"))
		return b.String()
	}
	info := a.info

	row := func(name, v string) {
		if v == "" {
			v = label.Render("-")
		} else {
			v = value.Render(v)
		}
		fmt.Fprintf(&b, "  %s %s\n", label.Render(fmt.Sprintf("%-9s", name)), v)
	}

	row("Wallet", info.Wallet)
	row("Address", info.Address)
	row("Name", info.DomainName)
	if info.AvatarURL != "" {
		row("Avatar", info.AvatarURL)
	}
	row("Network", info.Network)

	block, balance := info.BlockNumber, info.Balance
	if balance != "" && info.Symbol != "" {
		balance += " " + info.Symbol
	}
	if info.Refreshing {
		block, balance = "refreshing...", "refreshing..."
	}
	row("Block", block)
	row("Balance", balance)

	if info.AccessToken != "" {
		row("Token", abbreviate(info.AccessToken, 24))
	}
	if info.SignDeadline {
		fmt.Fprintf(&b, "\n  %s\n", warn.Render(fmt.Sprintf("Waiting for signature: %ds left", info.SignCounter)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
