// Package wallet implements the wallet session bounded context.
package wallet

import (
	"context"
	"net/http"
	"time"

	"github.com/fd1az/walletd/business/wallet/app"
	walletDI "github.com/fd1az/walletd/business/wallet/di"
	"github.com/fd1az/walletd/business/wallet/infra/ethereum"
	"github.com/fd1az/walletd/business/wallet/infra/prompt"
	"github.com/fd1az/walletd/business/wallet/infra/store"
	"github.com/fd1az/walletd/business/wallet/infra/wsapi"
	"github.com/fd1az/walletd/internal/config"
	"github.com/fd1az/walletd/internal/di"
	"github.com/fd1az/walletd/internal/logger"
	"github.com/fd1az/walletd/internal/monolith"
)

// Module implements the wallet bounded context.
type Module struct{}

// RegisterServices registers all wallet services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, walletDI.TokenIssuer, func(sr di.ServiceRegistry) *ethereum.TokenIssuer {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Auth.JWTSecret == "" {
			return nil
		}
		return ethereum.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	})

	di.RegisterToken(c, walletDI.Store, func(sr di.ServiceRegistry) store.Store {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s, err := store.New(ctx, cfg.Store, cfg.Auth.TokenTTL, log)
		if err != nil {
			// Sessions still work without persistence.
			log.Warn(ctx, "session store unavailable, falling back to memory", "driver", cfg.Store.Driver, "error", err)
			return store.NewMemory(cfg.Auth.TokenTTL)
		}
		return s
	})

	di.RegisterToken(c, walletDI.Adapter, func(sr di.ServiceRegistry) *ethereum.Adapter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		hc := sr.Get("httpClient").(*http.Client)
		p := sr.Get(walletDI.PrompterKey).(prompt.Prompter)

		adapter, err := ethereum.New(ethereum.NewConfig(cfg), hc, p, walletDI.GetTokenIssuer(sr), log)
		if err != nil {
			panic("failed to create wallet adapter: " + err.Error())
		}
		return adapter
	})

	di.RegisterToken(c, walletDI.Session, func(sr di.ServiceRegistry) *app.Session {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		session, err := app.NewSession(walletDI.GetAdapter(sr), walletDI.GetStore(sr), app.NewConfig(cfg.Wallet), log)
		if err != nil {
			panic("failed to create wallet session: " + err.Error())
		}
		return session
	})

	di.RegisterToken(c, walletDI.WSServer, func(sr di.ServiceRegistry) *wsapi.Server {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return wsapi.NewServer(walletDI.GetSession(sr), cfg.Server.Port, log)
	})

	return nil
}

// Startup wires health checks, the optional WebSocket API and shutdown hooks.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	sr := mono.Services()

	st := walletDI.GetStore(sr)
	adapter := walletDI.GetAdapter(sr)
	session := walletDI.GetSession(sr)

	mono.OnClose(func(context.Context) error { return st.Close() })
	mono.OnClose(func(context.Context) error {
		adapter.Close()
		return nil
	})
	mono.OnClose(session.Disconnect)

	mono.Health().RegisterCheck("wallet_session", func(context.Context) (bool, string) {
		snap := session.Snapshot()
		if snap.Session.Error != "" {
			return true, snap.Session.State.String() + ": " + snap.Session.Error
		}
		return true, snap.Session.State.String()
	})
	mono.Health().RegisterCheck("rpc", adapter.Health)
	mono.Health().RegisterCheck("session_store", func(ctx context.Context) (bool, string) {
		if err := st.Ping(ctx); err != nil {
			return false, err.Error()
		}
		return true, "ok"
	})

	if mono.Config().Server.Enabled {
		ws := walletDI.GetWSServer(sr)
		ws.Start(ctx)
		mono.OnClose(ws.Stop)
	}

	log.Info(ctx, "wallet module started")
	return nil
}
