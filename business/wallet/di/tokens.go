// Package di contains dependency injection tokens for the wallet context.
package di

import (
	"github.com/fd1az/walletd/business/wallet/app"
	"github.com/fd1az/walletd/business/wallet/infra/ethereum"
	"github.com/fd1az/walletd/business/wallet/infra/store"
	"github.com/fd1az/walletd/business/wallet/infra/wsapi"
	"github.com/fd1az/walletd/internal/di"
)

// PrompterKey is the container key under which the entry point registers
// the approval prompter before the module is resolved.
const PrompterKey = "prompter"

// Public service tokens - exposed to front ends
var (
	Session = di.NewToken[*app.Session]("wallet.Session")
	Adapter = di.NewToken[*ethereum.Adapter]("wallet.Adapter")
)

// Private dependency tokens - internal to the wallet module
var (
	Store       = di.NewToken[store.Store]("wallet:store")
	TokenIssuer = di.NewToken[*ethereum.TokenIssuer]("wallet:tokenIssuer")
	WSServer    = di.NewToken[*wsapi.Server]("wallet:wsServer")
)

// Helper functions for type-safe access
func GetSession(c di.ServiceRegistry) *app.Session {
	return di.GetToken(c, Session)
}

func GetAdapter(c di.ServiceRegistry) *ethereum.Adapter {
	return di.GetToken(c, Adapter)
}

func GetStore(c di.ServiceRegistry) store.Store {
	return di.GetToken(c, Store)
}

func GetTokenIssuer(c di.ServiceRegistry) *ethereum.TokenIssuer {
	return di.GetToken(c, TokenIssuer)
}

func GetWSServer(c di.ServiceRegistry) *wsapi.Server {
	return di.GetToken(c, WSServer)
}
