// Package ui provides the Bubble Tea TUI for the wallet session.
package ui

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/walletd/business/wallet/domain"
)

// Message types for TUI updates

// SnapshotMsg carries the latest session snapshot.
type SnapshotMsg struct {
	Snapshot domain.Snapshot
}

// CommandResultMsg is sent when a session command returns.
type CommandResultMsg struct {
	Command string
	Err     error
}

// AccountsMsg lists the accounts of the connected wallet.
type AccountsMsg struct {
	Accounts []common.Address
	Err      error
}

// PromptKind tells the dashboard how to render a prompt.
type PromptKind int

const (
	PromptPassphrase PromptKind = iota
	PromptSign
	PromptSwitch
)

// PromptMsg asks the user to answer a wallet request.
type PromptMsg struct {
	ID     uint64
	Kind   PromptKind
	Title  string
	Detail string

	reply chan answer
}

type answer struct {
	value    string
	approved bool
}

// Answer resolves the prompt. Only the first answer is delivered.
func (p PromptMsg) Answer(value string, approved bool) {
	select {
	case p.reply <- answer{value: value, approved: approved}:
	default:
	}
}

// PromptDoneMsg withdraws a prompt nobody is waiting on anymore.
type PromptDoneMsg struct {
	ID uint64
}

// ErrorMsg is sent when an error occurs outside a command.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}
