// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/fd1az/walletd/internal/config"
	"github.com/fd1az/walletd/internal/di"
	"github.com/fd1az/walletd/internal/health"
	"github.com/fd1az/walletd/internal/httpclient"
	"github.com/fd1az/walletd/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	HTTPClient() *http.Client
	Health() *health.Server
	Services() di.ServiceRegistry
	// OnClose registers fn to run, in reverse order, when the app closes.
	OnClose(fn func(context.Context) error)
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config     *config.Config
	logger     logger.LoggerInterface
	httpClient *http.Client
	health     *health.Server
	container  di.Container

	mu      sync.Mutex
	closers []func(context.Context) error
}

// New creates a new Monolith instance. httpOpts are applied to the shared RPC
// client after the options derived from cfg.
func New(cfg *config.Config, log logger.LoggerInterface, version string, httpOpts ...httpclient.ClientOption) (*app, error) {
	opts := []httpclient.ClientOption{httpclient.WithProviderName("rpc")}
	if cfg.Networks.RPCTimeout > 0 {
		opts = append(opts, httpclient.WithRequestTimeout(cfg.Networks.RPCTimeout))
	}
	if len(cfg.Networks.RPCHeaders) > 0 {
		opts = append(opts, httpclient.WithHeaders(cfg.Networks.RPCHeaders))
	}

	httpClient, err := httpclient.New(append(opts, httpOpts...)...)
	if err != nil {
		return nil, err
	}

	container := di.NewContainer()
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("httpClient", httpClient)

	return &app{
		config:     cfg,
		logger:     log,
		httpClient: httpClient,
		health:     health.NewServer(cfg.Health.Port, version, log),
		container:  container,
	}, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) HTTPClient() *http.Client {
	return a.httpClient
}

func (a *app) Health() *health.Server {
	return a.health
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

func (a *app) OnClose(fn func(context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close runs the registered closers newest first and stops the health server.
func (a *app) Close(ctx context.Context) error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.health.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	a.httpClient.CloseIdleConnections()
	return errors.Join(errs...)
}
