// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Networks  NetworksConfig  `mapstructure:"networks"`
	Names     NamesConfig     `mapstructure:"names"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Store     StoreConfig     `mapstructure:"store"`
	Server    ServerConfig    `mapstructure:"server"`
	Health    HealthConfig    `mapstructure:"health"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // Set at runtime, not from config file
}

// WalletConfig holds the session state machine and wallet adapter settings.
type WalletConfig struct {
	SignTimeoutSec int            `mapstructure:"sign_timeout_sec"`
	SignTick       time.Duration  `mapstructure:"sign_tick"`
	SlowDown       time.Duration  `mapstructure:"slow_down"`
	DisableSign    bool           `mapstructure:"disable_sign"`
	DefaultChainID uint64         `mapstructure:"default_chain_id"`
	SignDomain     string         `mapstructure:"sign_domain"`
	SignURI        string         `mapstructure:"sign_uri"`
	SignStatement  string         `mapstructure:"sign_statement"`
	Wallets        []WalletSource `mapstructure:"wallets"`
	Passphrase     string         `mapstructure:"passphrase"`   // CLI mode unlock passphrase
	AutoApprove    bool           `mapstructure:"auto_approve"` // CLI mode approves sign/switch prompts
	ChangePoll     time.Duration  `mapstructure:"change_poll"`  // Chain id polling interval for network changes
	RefreshPerMin  int            `mapstructure:"refresh_per_min"`
}

// WalletSource binds a wallet name to the keystore directory backing it.
type WalletSource struct {
	Name        string `mapstructure:"name"`
	KeystoreDir string `mapstructure:"keystore_dir"`
}

// SignTimeout returns the sign countdown as a duration.
func (c WalletConfig) SignTimeout() time.Duration {
	return time.Duration(c.SignTimeoutSec) * c.SignTick
}

// NetworksConfig holds per chain RPC overrides keyed by decimal chain id,
// plus settings of the shared RPC HTTP client.
type NetworksConfig struct {
	RPCURLs    map[string]string `mapstructure:"rpc_urls"`
	RPCTimeout time.Duration     `mapstructure:"rpc_timeout"`
	RPCHeaders map[string]string `mapstructure:"rpc_headers"`
}

// RPCURL returns the override for chainID, if any.
func (c NetworksConfig) RPCURL(chainID uint64) (string, bool) {
	url, ok := c.RPCURLs[strconv.FormatUint(chainID, 10)]
	return url, ok && url != ""
}

// NamesConfig holds name registry addresses keyed by decimal chain id.
type NamesConfig struct {
	Registries map[string]string `mapstructure:"registries"`
	CacheTTL   time.Duration     `mapstructure:"cache_ttl"`
}

// Registry returns the registry address configured for chainID.
func (c NamesConfig) Registry(chainID uint64) (common.Address, bool) {
	addr, ok := c.Registries[strconv.FormatUint(chainID, 10)]
	if !ok || !common.IsHexAddress(addr) {
		return common.Address{}, false
	}
	return common.HexToAddress(addr), true
}

// AuthConfig holds access token settings.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// StoreConfig selects the session store backend.
type StoreConfig struct {
	Driver        string `mapstructure:"driver"` // memory | redis
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

// ServerConfig holds the WebSocket API settings.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("WALLETD")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "WALLETD_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "WALLETD_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "WALLETD_LOG_LEVEL", "LOG_LEVEL")

	// Wallet
	v.BindEnv("wallet.sign_timeout_sec", "WALLETD_SIGN_TIMEOUT_SEC")
	v.BindEnv("wallet.slow_down", "WALLETD_SLOW_DOWN")
	v.BindEnv("wallet.disable_sign", "WALLETD_DISABLE_SIGN")
	v.BindEnv("wallet.default_chain_id", "WALLETD_DEFAULT_CHAIN_ID")
	v.BindEnv("wallet.passphrase", "WALLETD_PASSPHRASE")
	v.BindEnv("wallet.auto_approve", "WALLETD_AUTO_APPROVE")

	// Auth
	v.BindEnv("auth.jwt_secret", "WALLETD_JWT_SECRET", "JWT_SECRET")

	// Store
	v.BindEnv("store.driver", "WALLETD_STORE_DRIVER")
	v.BindEnv("store.redis_addr", "WALLETD_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("store.redis_password", "WALLETD_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Telemetry
	v.BindEnv("telemetry.enabled", "WALLETD_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "WALLETD_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "WALLETD_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "WALLETD_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "walletd")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Wallet defaults
	v.SetDefault("wallet.sign_timeout_sec", 60)
	v.SetDefault("wallet.sign_tick", "1s")
	v.SetDefault("wallet.slow_down", "1000ms")
	v.SetDefault("wallet.disable_sign", true)
	v.SetDefault("wallet.default_chain_id", 43114) // Avalanche C-Chain
	v.SetDefault("wallet.sign_domain", "localhost")
	v.SetDefault("wallet.sign_uri", "http://localhost")
	v.SetDefault("wallet.sign_statement", "Sign in to confirm you control this account.")
	v.SetDefault("wallet.wallets", []map[string]any{
		{"name": "METAMASK", "keystore_dir": "./keystore/metamask"},
	})
	v.SetDefault("wallet.auto_approve", false)
	v.SetDefault("wallet.change_poll", "5s")
	v.SetDefault("wallet.refresh_per_min", 30)

	// Names defaults (ENS registry on Ethereum mainnet)
	v.SetDefault("networks.rpc_timeout", "10s")

	v.SetDefault("names.registries", map[string]string{
		"1": "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e",
	})
	v.SetDefault("names.cache_ttl", "10m")

	// Auth defaults
	v.SetDefault("auth.issuer", "walletd")
	v.SetDefault("auth.token_ttl", "1h")

	// Store defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.key_prefix", "walletd:session:")

	// Server defaults
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8090)

	// Health defaults
	v.SetDefault("health.port", 8081)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "walletd")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Wallet.SignTimeoutSec <= 0 {
		return fmt.Errorf("wallet.sign_timeout_sec must be positive")
	}
	if c.Wallet.SignTick <= 0 {
		return fmt.Errorf("wallet.sign_tick must be positive")
	}
	if c.Wallet.SlowDown < 0 {
		return fmt.Errorf("wallet.slow_down cannot be negative")
	}
	if len(c.Wallet.Wallets) == 0 {
		return fmt.Errorf("wallet.wallets cannot be empty")
	}
	seen := make(map[string]bool, len(c.Wallet.Wallets))
	for _, w := range c.Wallet.Wallets {
		if w.Name == "" || w.KeystoreDir == "" {
			return fmt.Errorf("wallet.wallets entries need name and keystore_dir")
		}
		if seen[w.Name] {
			return fmt.Errorf("duplicate wallet name: %s", w.Name)
		}
		seen[w.Name] = true
	}
	for chain, addr := range c.Names.Registries {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid names.registries[%s]: %s", chain, addr)
		}
	}
	if !c.Wallet.DisableSign && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when signing is enabled")
	}
	switch c.Store.Driver {
	case "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown store.driver: %s", c.Store.Driver)
	}
	return nil
}
