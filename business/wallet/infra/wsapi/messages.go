package wsapi

import (
	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/apperror"
)

// Command names accepted on the socket.
const (
	CommandConnect    = "connect"
	CommandSelect     = "select"
	CommandUnlock     = "unlock"
	CommandSign       = "sign"
	CommandSwitch     = "switch"
	CommandDisconnect = "disconnect"
	CommandRefresh    = "refresh"
)

// Outgoing message types.
const (
	TypeSnapshot = "snapshot"
	TypeResult   = "result"
)

// Request is a command sent by a client.
type Request struct {
	ID      string `json:"id,omitempty"`
	Command string `json:"command"`
	Wallet  string `json:"wallet,omitempty"`
	Message string `json:"message,omitempty"`
	ChainID uint64 `json:"chainId,omitempty"`
}

// Response is either a session snapshot or the result of a command.
type Response struct {
	Type     string             `json:"type"`
	ID       string             `json:"id,omitempty"`
	OK       bool               `json:"ok,omitempty"`
	Error    *apperror.Response `json:"error,omitempty"`
	Snapshot *domain.Snapshot   `json:"snapshot,omitempty"`
}
