package ethereum

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fd1az/walletd/business/wallet/app"
	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/business/wallet/infra/prompt"
	"github.com/fd1az/walletd/internal/apm"
	"github.com/fd1az/walletd/internal/apperror"
	"github.com/fd1az/walletd/internal/config"
	"github.com/fd1az/walletd/internal/logger"
)

const tracerName = "github.com/fd1az/walletd/business/wallet/infra/ethereum"

var _ app.WalletProvider = (*Adapter)(nil)

// Config holds the adapter settings.
type Config struct {
	Wallets        []config.WalletSource
	DefaultChainID uint64
	SignDomain     string
	SignURI        string
	SignStatement  string
	ChangePoll     time.Duration
	Networks       config.NetworksConfig
	Names          config.NamesConfig
	ScryptN        int
	ScryptP        int
}

// NewConfig maps the application config.
func NewConfig(cfg *config.Config) Config {
	return Config{
		Wallets:        cfg.Wallet.Wallets,
		DefaultChainID: cfg.Wallet.DefaultChainID,
		SignDomain:     cfg.Wallet.SignDomain,
		SignURI:        cfg.Wallet.SignURI,
		SignStatement:  cfg.Wallet.SignStatement,
		ChangePoll:     cfg.Wallet.ChangePoll,
		Networks:       cfg.Networks,
		Names:          cfg.Names,
		ScryptN:        keystore.StandardScryptN,
		ScryptP:        keystore.StandardScryptP,
	}
}

// challenge is the outstanding sign-in message and, once signed, its signature.
type challenge struct {
	text      string
	nonce     string
	chainID   uint64
	signature string
}

// Adapter is a keystore backed wallet provider. Each configured wallet name
// maps to a keystore directory; the first account (or the one selected via
// SelectAccount) is the active account.
type Adapter struct {
	cfg      Config
	http     *http.Client
	prompter prompt.Prompter
	tokens   *TokenIssuer
	names    *nameResolver
	log      logger.LoggerInterface
	tracer   apm.Tracer

	mu          sync.Mutex
	keystores   map[domain.WalletName]*keystore.KeyStore
	wallet      domain.WalletName
	ks          *keystore.KeyStore
	account     accounts.Account
	requested   common.Address
	chainID     uint64
	loadedChain uint64
	clients     map[uint64]*chainClient
	challenge   *challenge
	token       string
	stopWatch   context.CancelFunc

	accountFeed event.Feed
	networkFeed event.Feed
}

// New creates an adapter. tokens may be nil, in which case verified
// sign-ins carry no access token.
func New(cfg Config, hc *http.Client, p prompt.Prompter, tokens *TokenIssuer, log logger.LoggerInterface) (*Adapter, error) {
	names, err := newNameResolver(cfg.Names.CacheTTL)
	if err != nil {
		return nil, err
	}
	if cfg.ScryptN == 0 {
		cfg.ScryptN, cfg.ScryptP = keystore.StandardScryptN, keystore.StandardScryptP
	}
	if cfg.SignStatement == "" {
		cfg.SignStatement = "Sign in to confirm you control this account."
	}

	return &Adapter{
		cfg:       cfg,
		http:      hc,
		prompter:  p,
		tokens:    tokens,
		names:     names,
		log:       log,
		tracer:    apm.NewTracer(tracerName),
		keystores: make(map[domain.WalletName]*keystore.KeyStore),
		chainID:   cfg.DefaultChainID,
		clients:   make(map[uint64]*chainClient),
	}, nil
}

// DetectWallets lists configured wallets whose keystore holds at least one account.
func (a *Adapter) DetectWallets(ctx context.Context) ([]domain.WalletDescriptor, error) {
	_, span := a.tracer.StartSpanFromContext(ctx, "wallet.adapter.DetectWallets")
	defer span.End()

	var found []domain.WalletDescriptor
	for _, src := range a.cfg.Wallets {
		if _, err := os.Stat(src.KeystoreDir); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			span.NoticeError(err)
			return nil, apperror.New(apperror.CodeWalletDetectionFailed, apperror.WithCause(err), apperror.WithContext(src.Name))
		}

		name := domain.WalletName(src.Name)
		if len(a.keystore(name, src.KeystoreDir).Accounts()) == 0 {
			continue
		}

		desc, ok := domain.LookupWallet(name)
		if !ok {
			desc = domain.WalletDescriptor{Name: name, Label: src.Name}
		}
		found = append(found, desc)
	}

	span.SetAttributes(attribute.Int("wallets", len(found)))
	return found, nil
}

// LoadProvider activates the named wallet. It reports false when the wallet
// is not configured or its keystore is empty.
func (a *Adapter) LoadProvider(ctx context.Context, name domain.WalletName) (bool, error) {
	_, span := a.tracer.StartSpanFromContext(ctx, "wallet.adapter.LoadProvider")
	defer span.End()
	span.SetAttributes(attribute.String("wallet", string(name)))

	src, ok := a.source(name)
	if !ok {
		return false, nil
	}
	ks := a.keystore(name, src.KeystoreDir)
	accs := ks.Accounts()
	if len(accs) == 0 {
		return false, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	account := accs[0]
	for _, acc := range accs {
		if acc.Address == a.requested {
			account = acc
		}
	}

	a.stopWatchLocked()
	a.wallet, a.ks, a.account = name, ks, account
	a.requested = common.Address{}

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopWatch = cancel
	go a.watch(watchCtx, ks, account.Address)

	a.log.Info(ctx, "wallet provider loaded", "wallet", name, "address", domain.ShortAddress(account.Address.Hex()))
	return true, nil
}

// Reset locks the active account and forgets the provider, the pending
// challenge and the access token. A selected account and the current chain
// survive for the next LoadProvider.
func (a *Adapter) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopWatchLocked()
	a.challenge = nil
	a.token = ""
	a.loadedChain = 0

	ks, acc := a.ks, a.account
	a.wallet, a.ks, a.account = "", nil, accounts.Account{}
	if ks == nil {
		return nil
	}
	if err := ks.Lock(acc.Address); err != nil {
		return apperror.New(apperror.CodeInternalError, apperror.WithCause(err), apperror.WithContext("lock account"))
	}
	return nil
}

// Health reports the circuit breaker state of the current chain's RPC client.
func (a *Adapter) Health(context.Context) (bool, string) {
	a.mu.Lock()
	c := a.clients[a.chainID]
	a.mu.Unlock()

	if c == nil {
		return true, "not connected"
	}
	return c.healthy()
}

// Close releases RPC connections and the name cache.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopWatchLocked()
	for id, c := range a.clients {
		c.Close()
		delete(a.clients, id)
	}
	a.names.Close()
}

func (a *Adapter) source(name domain.WalletName) (config.WalletSource, bool) {
	for _, src := range a.cfg.Wallets {
		if domain.WalletName(src.Name) == name {
			return src, true
		}
	}
	return config.WalletSource{}, false
}

func (a *Adapter) keystore(name domain.WalletName, dir string) *keystore.KeyStore {
	a.mu.Lock()
	defer a.mu.Unlock()

	ks, ok := a.keystores[name]
	if !ok {
		ks = keystore.NewKeyStore(dir, a.cfg.ScryptN, a.cfg.ScryptP)
		a.keystores[name] = ks
	}
	return ks
}

// active returns the loaded keystore and account.
func (a *Adapter) active() (*keystore.KeyStore, accounts.Account, domain.WalletName, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ks == nil {
		return nil, accounts.Account{}, "", apperror.New(apperror.CodeAccountNotLoaded)
	}
	return a.ks, a.account, a.wallet, nil
}

func (a *Adapter) stopWatchLocked() {
	if a.stopWatch != nil {
		a.stopWatch()
		a.stopWatch = nil
	}
}

// watch turns keystore drops of the active account into account changes and
// polls the RPC chain id for network changes.
func (a *Adapter) watch(ctx context.Context, ks *keystore.KeyStore, active common.Address) {
	events := make(chan accounts.WalletEvent, 8)
	sub := ks.Subscribe(events)
	defer sub.Unsubscribe()

	var tick <-chan time.Time
	if a.cfg.ChangePoll > 0 {
		ticker := time.NewTicker(a.cfg.ChangePoll)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Err():
			return
		case ev := <-events:
			if ev.Kind != accounts.WalletDropped || !ev.Wallet.Contains(accounts.Account{Address: active}) {
				continue
			}
			var next common.Address
			if accs := ks.Accounts(); len(accs) > 0 {
				next = accs[0].Address
			}
			a.mu.Lock()
			a.requested = next
			a.mu.Unlock()
			a.log.Info(ctx, "active account removed from keystore", "address", domain.ShortAddress(active.Hex()))
			a.accountFeed.Send(next)
			return
		case <-tick:
			a.pollChain(ctx)
		}
	}
}

func (a *Adapter) pollChain(ctx context.Context) {
	a.mu.Lock()
	c, loaded := a.clients[a.chainID], a.loadedChain
	a.mu.Unlock()
	if c == nil || loaded == 0 {
		return
	}

	id, err := c.ChainID(ctx)
	if err != nil {
		a.log.Debug(ctx, "chain id poll failed", "error", err)
		return
	}
	if id == loaded {
		return
	}

	a.mu.Lock()
	if a.loadedChain != loaded {
		a.mu.Unlock()
		return
	}
	a.loadedChain = 0
	a.mu.Unlock()

	a.log.Info(ctx, "rpc endpoint reports a different chain", "from", loaded, "to", id)
	a.networkFeed.Send(id)
}

func promptError(err error, rejected apperror.Code, op string) error {
	switch {
	case errors.Is(err, prompt.ErrRejected):
		return apperror.Rejected(rejected, op)
	case errors.Is(err, prompt.ErrPending):
		return apperror.New(apperror.CodeRequestPending, apperror.WithContext(op))
	}
	return fmt.Errorf("%s: %w", op, err)
}
