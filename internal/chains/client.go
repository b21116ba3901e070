package chains

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/retry"
)

var (
	ErrNoCode = errors.New("chains: empty call result")

	errBadResult = errors.New("chains: malformed call result")
)

// Caller is the part of ethclient.Client the balance code needs.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type TokenMetadata struct {
	Symbol   string
	Name     string
	Decimals uint8
}

// Client reads balances and token metadata on one network.
type Client struct {
	network string
	caller  Caller
	cache   *ristretto.Cache
	ttl     time.Duration
	retry   *retry.Config
}

// NewClient wraps caller. A nil cache or zero ttl disables caching.
func NewClient(network string, caller Caller, cache *ristretto.Cache, ttl time.Duration) *Client {
	return &Client{
		network: network,
		caller:  caller,
		cache:   cache,
		ttl:     ttl,
		retry:   DefaultRetryConfig(),
	}
}

// DefaultRetryConfig retries a failed RPC read twice, backing off from 100ms.
func DefaultRetryConfig() *retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxNumRetries = 2
	cfg.InitialDelayBeforeRetrying = 100 * time.Millisecond
	cfg.MaxDelayBeforeRetrying = time.Second
	return cfg
}

// SetRetryConfig replaces the retry policy. nil disables retries.
func (c *Client) SetRetryConfig(cfg *retry.Config) {
	if cfg == nil {
		cfg = DefaultRetryConfig()
		cfg.MaxNumRetries = 0
	}
	c.retry = cfg
}

// shouldRetry skips errors a second attempt cannot fix.
func shouldRetry(err error) bool {
	switch {
	case errors.Is(err, ErrNoCode),
		errors.Is(err, errBadResult),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return !strings.Contains(err.Error(), "execution reverted")
}

func NewBalanceCache() (*ristretto.Cache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1e4,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create balance cache")
	}
	return cache, nil
}

func (c *Client) Network() string { return c.network }

// BalanceOf returns the balance for owner.
// - token == zero address: native balance (wei)
// - else: ERC-20 balance (raw units)
func (c *Client) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	if owner == (common.Address{}) {
		return big.NewInt(0), nil
	}

	key := c.network + "|" + token.Hex() + "|" + owner.Hex()
	if v, ok := c.cached(key); ok {
		return v, nil
	}

	var (
		bal *big.Int
		err error
	)
	if token == (common.Address{}) {
		bal, err = c.NativeBalance(ctx, owner)
	} else {
		bal, err = c.TokenBalance(ctx, token, owner)
	}
	if err != nil {
		return nil, err
	}

	c.store(key, bal)
	return bal, nil
}

func (c *Client) NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	res, err := retry.Retry(ctx, c.retry,
		func(ctx context.Context) ([]interface{}, error) {
			wei, err := c.caller.BalanceAt(ctx, owner, nil)
			if err != nil {
				return nil, err
			}
			return []interface{}{wei}, nil
		},
		shouldRetry,
		"get native balance")
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get native balance of %s on %s", owner.Hex(), c.network)
	}
	wei, ok := res[0].(*big.Int)
	if !ok || wei == nil {
		return nil, errors.Wrapf(errBadResult, "native balance of %s on %s", owner.Hex(), c.network)
	}
	return wei, nil
}

func (c *Client) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	out, err := c.call(ctx, token, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.Newf("balanceOf on %s returned %T", token.Hex(), out[0])
	}
	return bal, nil
}

func (c *Client) TokenMetadata(ctx context.Context, token common.Address) (TokenMetadata, error) {
	var md TokenMetadata

	out, err := c.call(ctx, token, "symbol")
	if err != nil {
		return md, err
	}
	md.Symbol, _ = out[0].(string)

	out, err = c.call(ctx, token, "decimals")
	if err != nil {
		return md, err
	}
	dec, ok := out[0].(uint8)
	if !ok {
		return md, errors.Newf("decimals on %s returned %T", token.Hex(), out[0])
	}
	md.Decimals = dec

	// name() is optional in ERC-20
	if out, err := c.call(ctx, token, "name"); err == nil {
		md.Name, _ = out[0].(string)
	}

	return md, nil
}

func (c *Client) call(ctx context.Context, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	input, err := ERC20ABI.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to pack %s", method)
	}

	out, err := retry.Retry(ctx, c.retry,
		func(ctx context.Context) ([]interface{}, error) {
			raw, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
			if err != nil {
				return nil, err
			}
			if len(raw) == 0 {
				return nil, errors.Wrapf(ErrNoCode, "%s on %s (%s)", method, to.Hex(), c.network)
			}

			out, err := ERC20ABI.Unpack(method, raw)
			if err != nil {
				return nil, errors.Mark(errors.Wrapf(err, "Failed to unpack %s from %s", method, to.Hex()), errBadResult)
			}
			if len(out) == 0 {
				return nil, errors.Wrapf(ErrNoCode, "%s on %s returned nothing", method, to.Hex())
			}
			return out, nil
		},
		shouldRetry,
		"call "+method)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to call %s on %s (%s)", method, to.Hex(), c.network)
	}
	return out, nil
}

func (c *Client) cached(key string) (*big.Int, bool) {
	if c.cache == nil || c.ttl <= 0 {
		return nil, false
	}
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	bal, ok := v.(*big.Int)
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(bal), true
}

func (c *Client) store(key string, bal *big.Int) {
	if c.cache == nil || c.ttl <= 0 {
		return
	}
	c.cache.SetWithTTL(key, new(big.Int).Set(bal), 1, c.ttl)
}
