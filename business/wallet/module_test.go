package wallet

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	walletDI "github.com/fd1az/walletd/business/wallet/di"
	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/business/wallet/infra/prompt"
	"github.com/fd1az/walletd/internal/config"
	"github.com/fd1az/walletd/internal/health"
	"github.com/fd1az/walletd/internal/logger"
	"github.com/fd1az/walletd/internal/monolith"
)

const passphrase = "module test"

// avalanche answers the three eth_ calls the session needs.
type avalanche struct{}

func (avalanche) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(43114))
}

func (avalanche) BlockNumber() hexutil.Uint64 { return 42 }

func (avalanche) GetBalance(common.Address, string) *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(2_000_000_000_000_000_000))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
	if _, err := ks.NewAccount(passphrase); err != nil {
		t.Fatal(err)
	}

	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", avalanche{}); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &config.Config{
		Wallet: config.WalletConfig{
			SignTimeoutSec: 3,
			SignTick:       10 * time.Millisecond,
			DisableSign:    true,
			DefaultChainID: 43114,
			SignDomain:     "walletd.local",
			SignURI:        "https://walletd.local",
			Wallets:        []config.WalletSource{{Name: string(domain.MetaMask), KeystoreDir: dir}},
		},
		Networks: config.NetworksConfig{RPCURLs: map[string]string{"43114": ts.URL}},
		Auth:     config.AuthConfig{TokenTTL: time.Hour},
		Store:    config.StoreConfig{Driver: "memory"},
	}
}

func waitState(t *testing.T, get func() domain.Snapshot, cond func(domain.Snapshot) bool) domain.Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := get()
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out, last snapshot %+v", snap)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestModule_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	ctx := context.Background()

	mono, err := monolith.New(cfg, log, "test")
	if err != nil {
		t.Fatalf("monolith.New: %v", err)
	}
	mono.Container().Register(walletDI.PrompterKey, prompt.NewStatic(passphrase, true))

	mod := &Module{}
	if err := mono.RegisterModules(mod); err != nil {
		t.Fatalf("RegisterModules: %v", err)
	}
	if err := mono.StartModules(ctx, mod); err != nil {
		t.Fatalf("StartModules: %v", err)
	}
	t.Cleanup(func() { mono.Close(context.Background()) })

	session := walletDI.GetSession(mono.Services())
	if err := session.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitState(t, session.Snapshot, func(s domain.Snapshot) bool {
		return s.Account.LoadState == domain.Locked
	})

	if err := session.UnlockWallet(ctx); err != nil {
		t.Fatalf("UnlockWallet: %v", err)
	}
	snap := waitState(t, session.Snapshot, func(s domain.Snapshot) bool {
		return s.Session.State == domain.Authenticated
	})
	if snap.Network.Network == nil || snap.Network.Network.ChainID != 43114 {
		t.Fatalf("network = %+v", snap.Network.Network)
	}

	if err := session.RefreshLatestBlock(ctx); err != nil {
		t.Fatalf("RefreshLatestBlock: %v", err)
	}
	snap = session.Snapshot()
	if snap.Network.BlockInfo == nil || snap.Network.BlockInfo.BlockNumber != "42" || snap.Network.BlockInfo.SignerAccountBalance != "2.0000" {
		t.Fatalf("block info = %+v", snap.Network.BlockInfo)
	}

	addr := snap.Account.Account.Address.Hex()
	st := walletDI.GetStore(mono.Services())
	waitState(t, session.Snapshot, func(domain.Snapshot) bool {
		_, err := st.Get(ctx, addr)
		return err == nil
	})

	rec := httptest.NewRecorder()
	mono.Health().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var status health.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("health = %+v", status)
	}
	for _, name := range []string{"wallet_session", "rpc", "session_store"} {
		if _, ok := status.Checks[name]; !ok {
			t.Errorf("missing check %s", name)
		}
	}
	if got := status.Checks["wallet_session"].Message; got != "Authenticated" {
		t.Errorf("wallet_session = %q", got)
	}

	if err := session.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if _, err := st.Get(ctx, addr); err == nil {
		t.Error("session record survived disconnect")
	}
}
