package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: walletd-test\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.App.Name != "walletd-test" {
		t.Errorf("expected app name from file, got %q", cfg.App.Name)
	}
	if cfg.Wallet.SignTimeoutSec != 60 {
		t.Errorf("expected sign timeout 60, got %d", cfg.Wallet.SignTimeoutSec)
	}
	if cfg.Wallet.SlowDown != time.Second {
		t.Errorf("expected slow down 1s, got %s", cfg.Wallet.SlowDown)
	}
	if !cfg.Wallet.DisableSign {
		t.Error("expected signing disabled by default")
	}
	if cfg.Wallet.DefaultChainID != 43114 {
		t.Errorf("expected default chain 43114, got %d", cfg.Wallet.DefaultChainID)
	}
	if len(cfg.Wallet.Wallets) != 1 || cfg.Wallet.Wallets[0].Name != "METAMASK" {
		t.Errorf("unexpected default wallets: %+v", cfg.Wallet.Wallets)
	}
	if _, ok := cfg.Names.Registry(1); !ok {
		t.Error("expected a default name registry on chain 1")
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("expected memory store, got %q", cfg.Store.Driver)
	}
	if cfg.Networks.RPCTimeout != 10*time.Second {
		t.Errorf("expected rpc timeout 10s, got %s", cfg.Networks.RPCTimeout)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
wallet:
  slow_down: 0s
  disable_sign: false
  wallets:
    - name: METAMASK
      keystore_dir: /tmp/mm
    - name: RABBY
      keystore_dir: /tmp/rabby
networks:
  rpc_urls:
    "1337": http://127.0.0.1:8545
  rpc_timeout: 4s
  rpc_headers:
    x-api-key: node-key
auth:
  jwt_secret: file-secret
`)
	t.Setenv("WALLETD_SIGN_TIMEOUT_SEC", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Wallet.SignTimeoutSec != 3 {
		t.Errorf("expected env override 3, got %d", cfg.Wallet.SignTimeoutSec)
	}
	if cfg.Wallet.SignTimeout() != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", cfg.Wallet.SignTimeout())
	}
	if cfg.Wallet.SlowDown != 0 {
		t.Errorf("expected zero slow down, got %s", cfg.Wallet.SlowDown)
	}
	if len(cfg.Wallet.Wallets) != 2 {
		t.Fatalf("expected 2 wallets, got %d", len(cfg.Wallet.Wallets))
	}
	if url, ok := cfg.Networks.RPCURL(1337); !ok || url != "http://127.0.0.1:8545" {
		t.Errorf("unexpected rpc override (%q, %v)", url, ok)
	}
	if cfg.Networks.RPCTimeout != 4*time.Second || cfg.Networks.RPCHeaders["x-api-key"] != "node-key" {
		t.Errorf("unexpected rpc client settings %+v", cfg.Networks)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Wallet: WalletConfig{
				SignTimeoutSec: 60,
				SignTick:       time.Second,
				DisableSign:    true,
				Wallets:        []WalletSource{{Name: "METAMASK", KeystoreDir: "/tmp/mm"}},
			},
			Store: StoreConfig{Driver: "memory"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero timeout", func(c *Config) { c.Wallet.SignTimeoutSec = 0 }, true},
		{"negative slow down", func(c *Config) { c.Wallet.SlowDown = -time.Second }, true},
		{"no wallets", func(c *Config) { c.Wallet.Wallets = nil }, true},
		{"duplicate wallets", func(c *Config) {
			c.Wallet.Wallets = append(c.Wallet.Wallets, WalletSource{Name: "METAMASK", KeystoreDir: "/x"})
		}, true},
		{"sign without secret", func(c *Config) { c.Wallet.DisableSign = false }, true},
		{"sign with secret", func(c *Config) {
			c.Wallet.DisableSign = false
			c.Auth.JWTSecret = "s"
		}, false},
		{"bad registry", func(c *Config) { c.Names.Registries = map[string]string{"1": "nope"} }, true},
		{"unknown store", func(c *Config) { c.Store.Driver = "etcd" }, true},
		{"redis without addr", func(c *Config) { c.Store.Driver = "redis" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
