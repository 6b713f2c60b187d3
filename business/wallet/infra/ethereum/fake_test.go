package ethereum

import (
	"context"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/business/wallet/infra/prompt"
	"github.com/fd1az/walletd/internal/config"
	"github.com/fd1az/walletd/internal/logger"
)

const testPassphrase = "correct horse"

var (
	testRegistry = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")
	testResolver = common.HexToAddress("0x4976fb03C32e5B8cfe2b6cCB31c09Ba78EBaBa41")
)

// fakeEth serves the eth_ namespace methods the adapter calls, including a
// minimal name registry and resolver behind eth_call.
type fakeEth struct {
	mu      sync.Mutex
	chainID uint64
	block   uint64
	balance *big.Int
	fail    bool

	registryABI abi.ABI
	resolverABI abi.ABI
	resolvers   map[common.Hash]common.Address
	names       map[common.Hash]string
	addrs       map[common.Hash]common.Address
	texts       map[common.Hash]map[string]string
}

type callArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
	Data  hexutil.Bytes   `json:"data"`
}

func (f *fakeEth) ChainId() (*hexutil.Big, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("node unavailable")
	}
	return (*hexutil.Big)(new(big.Int).SetUint64(f.chainID)), nil
}

func (f *fakeEth) BlockNumber() hexutil.Uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return hexutil.Uint64(f.block)
}

func (f *fakeEth) GetBalance(_ common.Address, _ string) *hexutil.Big {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (*hexutil.Big)(f.balance)
}

func (f *fakeEth) Call(args callArgs, _ string) (hexutil.Bytes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := args.Input
	if len(data) == 0 {
		data = args.Data
	}
	if args.To == nil || len(data) < 4 {
		return nil, errors.New("bad call")
	}

	parsed := f.resolverABI
	if *args.To == testRegistry {
		parsed = f.registryABI
	}
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	in, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	node := common.Hash(in[0].([32]byte))

	switch method.Name {
	case "resolver":
		return method.Outputs.Pack(f.resolvers[node])
	case "name":
		return method.Outputs.Pack(f.names[node])
	case "addr":
		return method.Outputs.Pack(f.addrs[node])
	case "text":
		return method.Outputs.Pack(f.texts[node][in[1].(string)])
	}
	return nil, errors.New("unknown method")
}

func (f *fakeEth) set(fn func(f *fakeEth)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// setName registers name as addr's primary name with a matching forward record.
func (f *fakeEth) setName(addr common.Address, name, avatar string) {
	f.set(func(f *fakeEth) {
		rev, fwd := reverseNode(addr), namehash(name)
		f.resolvers[rev] = testResolver
		f.resolvers[fwd] = testResolver
		f.names[rev] = name
		f.addrs[fwd] = addr
		f.texts[fwd] = map[string]string{"avatar": avatar}
	})
}

func newFakeChain(t *testing.T, chainID uint64) (*fakeEth, string) {
	t.Helper()

	reg, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		t.Fatal(err)
	}
	res, err := abi.JSON(strings.NewReader(resolverABI))
	if err != nil {
		t.Fatal(err)
	}

	fake := &fakeEth{
		chainID:     chainID,
		block:       1234,
		balance:     big.NewInt(1_500_000_000_000_000_000),
		registryABI: reg,
		resolverABI: res,
		resolvers:   make(map[common.Hash]common.Address),
		names:       make(map[common.Hash]string),
		addrs:       make(map[common.Hash]common.Address),
		texts:       make(map[common.Hash]map[string]string),
	}

	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", fake); err != nil {
		t.Fatalf("register eth service: %v", err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})
	return fake, ts.URL
}

// newKeystoreDir creates a keystore directory holding n accounts.
func newKeystoreDir(t *testing.T, n int) (string, []common.Address) {
	t.Helper()
	dir := t.TempDir()
	ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
	var addrs []common.Address
	for i := 0; i < n; i++ {
		acc, err := ks.NewAccount(testPassphrase)
		if err != nil {
			t.Fatalf("NewAccount: %v", err)
		}
		addrs = append(addrs, acc.Address)
	}
	return dir, addrs
}

type adapterOpts struct {
	wallets  []config.WalletSource
	rpc      map[uint64]string
	prompter prompt.Prompter
	tokens   *TokenIssuer
	poll     time.Duration
	names    bool
}

func newTestAdapter(t *testing.T, o adapterOpts) *Adapter {
	t.Helper()

	rpcURLs := make(map[string]string)
	for id, url := range o.rpc {
		rpcURLs[strconv.FormatUint(id, 10)] = url
	}
	registries := map[string]string{}
	if o.names {
		registries["43114"] = testRegistry.Hex()
	}
	if o.prompter == nil {
		o.prompter = prompt.NewStatic(testPassphrase, true)
	}

	cfg := Config{
		Wallets:        o.wallets,
		DefaultChainID: 43114,
		SignDomain:     "walletd.local",
		SignURI:        "https://walletd.local/login",
		ChangePoll:     o.poll,
		Networks:       config.NetworksConfig{RPCURLs: rpcURLs},
		Names:          config.NamesConfig{Registries: registries, CacheTTL: time.Minute},
		ScryptN:        keystore.LightScryptN,
		ScryptP:        keystore.LightScryptP,
	}

	a, err := New(cfg, &http.Client{Timeout: 5 * time.Second}, o.prompter, o.tokens,
		logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

// scripted is a prompter with fixed answers.
type scripted struct {
	passphrase string
	passErr    error
	signErr    error
	switchErr  error
}

func (s scripted) Passphrase(context.Context, domain.WalletName, common.Address) (string, error) {
	return s.passphrase, s.passErr
}

func (s scripted) ApproveSign(context.Context, common.Address, string) error { return s.signErr }

func (s scripted) ApproveSwitch(context.Context, domain.Network) error { return s.switchErr }
