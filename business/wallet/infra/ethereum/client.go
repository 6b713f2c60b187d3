// Package ethereum implements the wallet provider on go-ethereum keystores
// and JSON-RPC endpoints.
package ethereum

import (
	"context"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/walletd/internal/apperror"
	"github.com/fd1az/walletd/internal/circuitbreaker"
	"github.com/fd1az/walletd/internal/logger"
)

// chainClient is the RPC connection for one network. Every call goes through
// a circuit breaker for its call family.
type chainClient struct {
	chainID uint64
	url     string
	eth     *ethclient.Client

	headCB    *circuitbreaker.CircuitBreaker[uint64]
	balanceCB *circuitbreaker.CircuitBreaker[*big.Int]
	callCB    *circuitbreaker.CircuitBreaker[[]byte]
}

func dialChain(ctx context.Context, chainID uint64, url string, hc *http.Client, log logger.LoggerInterface) (*chainClient, error) {
	rc, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(hc))
	if err != nil {
		return nil, apperror.External(apperror.CodeEthereumConnectionFailed, url, err)
	}

	name := "rpc-" + strconv.FormatUint(chainID, 10)
	onChange := func(breaker string, from, to gobreaker.State) {
		log.Warn(context.Background(), "rpc circuit breaker state changed",
			"breaker", breaker, "from", from.String(), "to", to.String())
	}
	cfg := func(family string) circuitbreaker.Config {
		c := circuitbreaker.DefaultConfig(name + "-" + family)
		c.OnStateChange = onChange
		return c
	}

	return &chainClient{
		chainID:   chainID,
		url:       url,
		eth:       ethclient.NewClient(rc),
		headCB:    circuitbreaker.New[uint64](cfg("head")),
		balanceCB: circuitbreaker.New[*big.Int](cfg("balance")),
		callCB:    circuitbreaker.New[[]byte](cfg("call")),
	}, nil
}

func (c *chainClient) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.headCB.Execute(func() (uint64, error) {
		id, err := c.eth.ChainID(ctx)
		if err != nil {
			return 0, err
		}
		return id.Uint64(), nil
	})
	if err != nil {
		return 0, rpcError("eth_chainId", err)
	}
	return id, nil
}

func (c *chainClient) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.headCB.Execute(func() (uint64, error) {
		return c.eth.BlockNumber(ctx)
	})
	if err != nil {
		return 0, rpcError("eth_blockNumber", err)
	}
	return n, nil
}

func (c *chainClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	bal, err := c.balanceCB.Execute(func() (*big.Int, error) {
		return c.eth.BalanceAt(ctx, account, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeBalanceFetchFailed, apperror.WithCause(err), apperror.WithContext(account.Hex()))
	}
	return bal, nil
}

func (c *chainClient) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := c.callCB.Execute(func() ([]byte, error) {
		return c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
	if err != nil {
		return nil, rpcError("eth_call", err)
	}
	return out, nil
}

// healthy reports whether every breaker is closed.
func (c *chainClient) healthy() (bool, string) {
	for _, st := range []gobreaker.State{c.headCB.State(), c.balanceCB.State(), c.callCB.State()} {
		if st != gobreaker.StateClosed {
			return false, c.url + ": breaker " + st.String()
		}
	}
	return true, c.url
}

func (c *chainClient) Close() {
	c.eth.Close()
}

func rpcError(method string, err error) error {
	if apperror.HasCode(err, apperror.CodeCircuitOpen, apperror.CodeCircuitHalfOpen) {
		return err
	}
	return apperror.External(apperror.CodeEthereumRPCError, method, err)
}
