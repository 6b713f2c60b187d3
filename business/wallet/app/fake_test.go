package app

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/apperror"
	"github.com/fd1az/walletd/internal/asset"
)

// mockLogger discards everything.
type mockLogger struct{}

func (mockLogger) Debug(context.Context, string, ...any)       {}
func (mockLogger) Info(context.Context, string, ...any)        {}
func (mockLogger) Warn(context.Context, string, ...any)        {}
func (mockLogger) Error(context.Context, string, ...any)       {}
func (mockLogger) Debugc(context.Context, int, string, ...any) {}
func (mockLogger) Infoc(context.Context, int, string, ...any)  {}
func (mockLogger) Warnc(context.Context, int, string, ...any)  {}
func (mockLogger) Errorc(context.Context, int, string, ...any) {}

var testAddress = common.HexToAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976F")

// fakeProvider is a scripted WalletProvider. Zero values describe a single
// unlocked MetaMask wallet on Avalanche that signs immediately.
type fakeProvider struct {
	mu sync.Mutex

	wallets   []domain.WalletDescriptor
	detectErr error
	detectFn  func(ctx context.Context) error

	loadErr    error
	loadFalse  bool
	loadedWith []domain.WalletName

	unlocked      bool
	unlockNoop    bool
	isUnlockedErr error
	unlockResults []error
	unlockCalls   int

	chainID    uint64
	networkErr error
	switchOK   bool
	switchErr  error

	signFn      func(ctx context.Context) error
	signResults []error
	signCalls   int
	notSigned   bool
	accountErr  error
	prepareErr  error

	domainSupported bool
	domainName      string
	domainErr       error
	avatarURL       string

	block     uint64
	blockErr  error
	balance   *big.Int
	resetErr  error
	resets    int
	handled   int
	handleFn  func(ctx context.Context) error
	switches  []uint64
	accountCh event.Feed
	networkCh event.Feed
}

func newFakeProvider() *fakeProvider {
	mm, _ := domain.LookupWallet(domain.MetaMask)
	return &fakeProvider{
		wallets:  []domain.WalletDescriptor{mm},
		unlocked: true,
		chainID:  asset.ChainIDAvalanche,
		switchOK: true,
		block:    1234,
		balance:  big.NewInt(1_500_000_000_000_000_000),
	}
}

func (f *fakeProvider) DetectWallets(ctx context.Context) ([]domain.WalletDescriptor, error) {
	f.mu.Lock()
	fn, err, wallets := f.detectFn, f.detectErr, append([]domain.WalletDescriptor(nil), f.wallets...)
	f.mu.Unlock()

	if fn != nil {
		if err := fn(ctx); err != nil {
			return nil, err
		}
	}
	return wallets, err
}

func (f *fakeProvider) LoadProvider(_ context.Context, name domain.WalletName) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadedWith = append(f.loadedWith, name)
	if f.loadErr != nil {
		return false, f.loadErr
	}
	return !f.loadFalse, nil
}

func (f *fakeProvider) IsUnlocked(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unlocked, f.isUnlockedErr
}

func (f *fakeProvider) Unlock(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unlockCalls++
	var err error
	if len(f.unlockResults) > 0 {
		err, f.unlockResults = f.unlockResults[0], f.unlockResults[1:]
	}
	if err == nil && !f.unlockNoop {
		f.unlocked = true
	}
	return err
}

func (f *fakeProvider) IsSigned(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.notSigned, nil
}

func (f *fakeProvider) PrepareSignMessage(_ context.Context, statement string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return "prepared:" + statement, f.prepareErr
}

func (f *fakeProvider) Sign(ctx context.Context, _ string) error {
	f.mu.Lock()
	f.signCalls++
	fn := f.signFn
	var err error
	if len(f.signResults) > 0 {
		err, f.signResults = f.signResults[0], f.signResults[1:]
	}
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return err
}

func (f *fakeProvider) GetAccount(context.Context) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accountErr != nil {
		return domain.Account{}, f.accountErr
	}
	acct := domain.NewAccount(testAddress)
	acct.AccessToken = "token"
	return acct, nil
}

func (f *fakeProvider) IsDomainNameSupported(uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.domainSupported
}

func (f *fakeProvider) GetDomainName(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.domainName, f.domainErr
}

func (f *fakeProvider) GetAvatarURL(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.avatarURL, nil
}

func (f *fakeProvider) ListenAccountChange(ch chan<- common.Address) (event.Subscription, error) {
	return f.accountCh.Subscribe(ch), nil
}

func (f *fakeProvider) HandleAccountChange(ctx context.Context) error {
	f.mu.Lock()
	f.handled++
	fn := f.handleFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return nil
}

func (f *fakeProvider) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return f.resetErr
}

func (f *fakeProvider) LoadNetwork(context.Context) (domain.Network, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.networkErr != nil {
		return domain.Network{}, f.networkErr
	}
	n, ok := domain.FindNetwork(f.chainID)
	if !ok {
		return domain.Network{ChainID: f.chainID}, apperror.New(apperror.CodeNetworkNotSupported)
	}
	return n, nil
}

func (f *fakeProvider) SwitchNetwork(_ context.Context, chainID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switches = append(f.switches, chainID)
	if f.switchErr != nil || !f.switchOK {
		return false, f.switchErr
	}
	f.chainID = chainID
	return true, nil
}

func (f *fakeProvider) ListenNetworkChange(ch chan<- uint64) (event.Subscription, error) {
	return f.networkCh.Subscribe(ch), nil
}

func (f *fakeProvider) GetLatestBlock(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.block, f.blockErr
}

func (f *fakeProvider) GetBalance(context.Context) (asset.Amount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return asset.NewAmount(asset.AVAX, f.balance), nil
}

func (f *fakeProvider) with(fn func(f *fakeProvider)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// fakeStore records saves and deletes.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]domain.SessionRecord
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]domain.SessionRecord)}
}

func (s *fakeStore) Save(_ context.Context, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Address] = rec
	return nil
}

func (s *fakeStore) Get(_ context.Context, address string) (domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[address]
	if !ok {
		return domain.SessionRecord{}, apperror.New(apperror.CodeSessionNotFound)
	}
	return rec, nil
}

func (s *fakeStore) Delete(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, address)
	s.deleted = append(s.deleted, address)
	return nil
}

// recorder collects every published snapshot. Send returns only after the
// value is buffered, so draining on read sees everything committed so far.
type recorder struct {
	mu    sync.Mutex
	ch    chan domain.Snapshot
	snaps []domain.Snapshot
}

func record(t *testing.T, s *Session) *recorder {
	t.Helper()
	r := &recorder{ch: make(chan domain.Snapshot, 4096)}
	sub := s.Subscribe(r.ch)
	t.Cleanup(sub.Unsubscribe)
	return r
}

func (r *recorder) all() []domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		select {
		case snap := <-r.ch:
			r.snaps = append(r.snaps, snap)
		default:
			return append([]domain.Snapshot(nil), r.snaps...)
		}
	}
}

// sessionStates returns the top-level phases with consecutive duplicates removed.
func (r *recorder) sessionStates() []domain.WalletPhase {
	var out []domain.WalletPhase
	for _, s := range r.all() {
		if len(out) == 0 || out[len(out)-1] != s.Session.State {
			out = append(out, s.Session.State)
		}
	}
	return out
}

func (r *recorder) accountPhases() []domain.AccountLoadPhase {
	var out []domain.AccountLoadPhase
	for _, s := range r.all() {
		if len(out) == 0 || out[len(out)-1] != s.Account.LoadState {
			out = append(out, s.Account.LoadState)
		}
	}
	return out
}

func (r *recorder) signPhases() []domain.AccountSignPhase {
	var out []domain.AccountSignPhase
	for _, s := range r.all() {
		if len(out) == 0 || out[len(out)-1] != s.Account.SignState {
			out = append(out, s.Account.SignState)
		}
	}
	return out
}

func testConfig() Config {
	return Config{
		SignTimeoutSec: 3,
		SignTick:       10 * time.Millisecond,
		SlowDown:       0,
		DisableSign:    true,
	}
}

func newTestSession(t *testing.T, p *fakeProvider, cfg Config) *Session {
	t.Helper()
	s, err := NewSession(p, nil, cfg, mockLogger{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { s.Disconnect(context.Background()) })
	return s
}

// waitFor polls the session until cond holds.
func waitFor(t *testing.T, s *Session, what string, cond func(domain.Snapshot) bool) domain.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := s.Snapshot()
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s, last snapshot %+v", what, snap)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func isAuthenticated(snap domain.Snapshot) bool {
	return snap.Session.State == domain.Authenticated
}
