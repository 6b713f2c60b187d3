// Package main is the entry point for the wallet session daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/walletd/business/wallet"
	"github.com/fd1az/walletd/business/wallet/app"
	walletDI "github.com/fd1az/walletd/business/wallet/di"
	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/business/wallet/infra/prompt"
	"github.com/fd1az/walletd/internal/apm"
	"github.com/fd1az/walletd/internal/config"
	"github.com/fd1az/walletd/internal/httpclient"
	"github.com/fd1az/walletd/internal/logger"
	"github.com/fd1az/walletd/internal/metrics"
	"github.com/fd1az/walletd/internal/monolith"
	"github.com/fd1az/walletd/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("walletd %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for headless runs
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	// In TUI mode logs would corrupt the screen
	out := io.Writer(os.Stderr)
	if tuiMode {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting walletd", "version", version, "environment", cfg.App.Environment)

	var httpOpts []httpclient.ClientOption
	if cfg.Telemetry.Enabled {
		traceProvider, err := apm.NewTraceProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return fmt.Errorf("failed to start tracing: %w", err)
		}
		defer traceProvider.Stop()

		meterProvider, err := metrics.NewMetricProvider(ctx, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to start metrics: %w", err)
		}
		defer meterProvider.Shutdown(context.Background())
		httpOpts = append(httpOpts, httpclient.WithMeterProvider(meterProvider))

		prom := metrics.NewPromServer(cfg.Telemetry.PrometheusPort, log)
		prom.Start(ctx)
		defer prom.Stop(context.Background())
	}

	mono, err := monolith.New(cfg, log, version, httpOpts...)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mono.Close(closeCtx); err != nil {
			log.Error(closeCtx, "shutdown", "error", err)
		}
	}()

	// The adapter asks for approvals through the prompter
	if tuiMode {
		mono.Container().Register(walletDI.PrompterKey, ui.NewPrompter(ui.Send))
	} else {
		mono.Container().Register(walletDI.PrompterKey, prompt.NewStatic(cfg.Wallet.Passphrase, cfg.Wallet.AutoApprove))
	}

	modules := []monolith.Module{
		&wallet.Module{},
	}
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	start := func() error {
		if err := mono.StartModules(ctx, modules...); err != nil {
			return fmt.Errorf("failed to start modules: %w", err)
		}
		mono.Health().Start(ctx)
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
		return nil
	}

	session := walletDI.GetSession(mono.Services())
	if tuiMode {
		return runTUI(ctx, cfg, mono, session, start)
	}

	if err := start(); err != nil {
		return err
	}
	return runCLI(ctx, session, log)
}

// runCLI connects once and logs every session change until shutdown.
func runCLI(ctx context.Context, session *app.Session, log *logger.Logger) error {
	changes := make(chan domain.Snapshot, 64)
	sub := session.Subscribe(changes)
	defer sub.Unsubscribe()

	go func() {
		if err := session.Connect(ctx); err != nil {
			log.Error(ctx, "connect", "error", err)
		}
	}()

	var last domain.WalletPhase = -1
	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "shutting down")
			return nil
		case snap := <-changes:
			if snap.Session.State == last && snap.Session.Error == "" {
				continue
			}
			last = snap.Session.State
			args := []any{
				"state", snap.Session.State,
				"provider", snap.Provider.LoadState,
				"account", snap.Account.LoadState,
				"network", snap.Network.LoadState,
				"sign", snap.Account.SignState,
			}
			if snap.Session.Error != "" {
				args = append(args, "error", snap.Session.Error)
			}
			log.Info(ctx, "session", args...)
		}
	}
}

func runTUI(ctx context.Context, cfg *config.Config, mono monolith.Monolith, session *app.Session, start func() error) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	model := ui.New(session,
		ui.WithStatement(cfg.Wallet.SignStatement),
		ui.WithAccountSwitcher(walletDI.GetAdapter(mono.Services())),
	)
	ui.WatchSession(ctx, session, ui.Send)

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}
		if err := start(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		errCh <- nil
	}()

	go func() {
		<-ctx.Done()
		ui.Send(tea.Quit())
	}()

	if err := ui.Run(model); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
