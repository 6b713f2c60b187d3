package ethereum

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/walletd/internal/apperror"
	"github.com/fd1az/walletd/internal/cache"
)

const registryABI = `[
	{"inputs":[{"name":"node","type":"bytes32"}],"name":"resolver","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

const resolverABI = `[
	{"inputs":[{"name":"node","type":"bytes32"}],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"node","type":"bytes32"}],"name":"addr","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],"name":"text","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

// caller is the eth_call surface the resolver needs.
type caller interface {
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// nameResolver performs ENS style reverse resolution with forward
// verification, and text record lookups.
type nameResolver struct {
	registry abi.ABI
	resolver abi.ABI
	cache    *cache.Cache[string, string]
	ttl      time.Duration
}

func newNameResolver(ttl time.Duration) (*nameResolver, error) {
	reg, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("parse registry ABI: %w", err)
	}
	res, err := abi.JSON(strings.NewReader(resolverABI))
	if err != nil {
		return nil, fmt.Errorf("parse resolver ABI: %w", err)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &nameResolver{
		registry: reg,
		resolver: res,
		cache:    cache.New[string, string](time.Minute),
		ttl:      ttl,
	}, nil
}

// namehash implements the EIP-137 name hash.
func namehash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(strings.ToLower(name), ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := crypto.Keccak256Hash([]byte(labels[i]))
		node = crypto.Keccak256Hash(node.Bytes(), label.Bytes())
	}
	return node
}

func reverseNode(addr common.Address) common.Hash {
	return namehash(strings.ToLower(addr.Hex()[2:]) + ".addr.reverse")
}

// ReverseName returns the primary name of addr, or "" when none is set or
// the forward record does not point back to addr.
func (r *nameResolver) ReverseName(ctx context.Context, c caller, registry, addr common.Address) (string, error) {
	key := "name:" + registry.Hex() + ":" + addr.Hex()
	if name, ok := r.cache.Get(ctx, key); ok {
		return name, nil
	}

	node := reverseNode(addr)
	resolver, err := r.resolverOf(ctx, c, registry, node)
	if err != nil || resolver == (common.Address{}) {
		return "", err
	}

	var name string
	if err := r.call(ctx, c, resolver, &name, "name", node); err != nil {
		return "", err
	}

	if name != "" {
		forward, err := r.address(ctx, c, registry, name)
		if err != nil {
			return "", err
		}
		if forward != addr {
			name = ""
		}
	}

	r.cache.Set(ctx, key, name, r.ttl)
	return name, nil
}

// Text returns the text record key of name.
func (r *nameResolver) Text(ctx context.Context, c caller, registry common.Address, name, key string) (string, error) {
	cacheKey := "text:" + registry.Hex() + ":" + name + ":" + key
	if v, ok := r.cache.Get(ctx, cacheKey); ok {
		return v, nil
	}

	node := namehash(name)
	resolver, err := r.resolverOf(ctx, c, registry, node)
	if err != nil || resolver == (common.Address{}) {
		return "", err
	}

	var value string
	if err := r.call(ctx, c, resolver, &value, "text", node, key); err != nil {
		return "", err
	}

	r.cache.Set(ctx, cacheKey, value, r.ttl)
	return value, nil
}

func (r *nameResolver) address(ctx context.Context, c caller, registry common.Address, name string) (common.Address, error) {
	node := namehash(name)
	resolver, err := r.resolverOf(ctx, c, registry, node)
	if err != nil || resolver == (common.Address{}) {
		return common.Address{}, err
	}
	var addr common.Address
	err = r.call(ctx, c, resolver, &addr, "addr", node)
	return addr, err
}

func (r *nameResolver) resolverOf(ctx context.Context, c caller, registry common.Address, node common.Hash) (common.Address, error) {
	data, err := r.registry.Pack("resolver", node)
	if err != nil {
		return common.Address{}, err
	}
	out, err := c.Call(ctx, registry, data)
	if err != nil {
		return common.Address{}, apperror.New(apperror.CodeDomainResolutionFailed, apperror.WithCause(err), apperror.WithContext("resolver"))
	}
	var resolver common.Address
	if err := r.registry.UnpackIntoInterface(&resolver, "resolver", out); err != nil {
		return common.Address{}, apperror.New(apperror.CodeDomainResolutionFailed, apperror.WithCause(err), apperror.WithContext("resolver"))
	}
	return resolver, nil
}

func (r *nameResolver) call(ctx context.Context, c caller, to common.Address, out any, method string, args ...any) error {
	data, err := r.resolver.Pack(method, args...)
	if err != nil {
		return err
	}
	raw, err := c.Call(ctx, to, data)
	if err != nil {
		return apperror.New(apperror.CodeDomainResolutionFailed, apperror.WithCause(err), apperror.WithContext(method))
	}
	if err := r.resolver.UnpackIntoInterface(out, method, raw); err != nil {
		return apperror.New(apperror.CodeDomainResolutionFailed, apperror.WithCause(err), apperror.WithContext(method))
	}
	return nil
}

func (r *nameResolver) Close() {
	r.cache.Close()
}
