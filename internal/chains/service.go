package chains

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/quantumauth-io/quantum-go-utils/retry"
)

var ErrUnknownNetwork = errors.New("chains: unknown network")

type Network struct {
	Name     string   `mapstructure:"name" json:"name" validate:"required"`
	ChainID  uint64   `mapstructure:"chainId" json:"chainId" validate:"required"`
	RPCURL   string   `mapstructure:"rpcUrl" json:"-" validate:"required,url"`
	Symbol   string   `mapstructure:"symbol" json:"symbol"`
	Explorer string   `mapstructure:"explorer" json:"explorer,omitempty" validate:"omitempty,url"`
	Assets   []string `mapstructure:"assets" json:"-"`
}

// DialFunc opens a Caller for an RPC endpoint.
type DialFunc func(ctx context.Context, rpcURL string) (Caller, error)

func DialEthclient(ctx context.Context, rpcURL string) (Caller, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to connect to blockchain at %s", rpcURL)
	}
	return c, nil
}

// Service hands out one Client per configured network, dialing lazily.
type Service struct {
	mu       sync.Mutex
	networks map[string]Network
	clients  map[string]*Client
	callers  []Caller
	dial     DialFunc
	cache    *ristretto.Cache
	ttl      time.Duration
	retry    *retry.Config
}

func NewService(networks map[string]Network, dial DialFunc, cache *ristretto.Cache, ttl time.Duration) *Service {
	if dial == nil {
		dial = DialEthclient
	}
	byKey := make(map[string]Network, len(networks))
	for key, n := range networks {
		nk := NormalizeNetworkKey(key)
		if nk == "" {
			continue
		}
		if n.Name == "" {
			n.Name = nk
		}
		if n.Explorer == "" {
			n.Explorer = DefaultExplorer(n.ChainID)
		}
		byKey[nk] = n
	}
	return &Service{
		networks: byKey,
		clients:  map[string]*Client{},
		dial:     dial,
		cache:    cache,
		ttl:      ttl,
		retry:    DefaultRetryConfig(),
	}
}

// SetRetryConfig sets the retry policy of every client. Call it before
// serving requests.
func (s *Service) SetRetryConfig(cfg *retry.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retry = cfg
	for _, c := range s.clients {
		c.SetRetryConfig(cfg)
	}
}

func NormalizeNetworkKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *Service) Network(network string) (Network, error) {
	n, ok := s.networks[NormalizeNetworkKey(network)]
	if !ok {
		return Network{}, errors.Wrapf(ErrUnknownNetwork, "%q", network)
	}
	return n, nil
}

// Networks returns the normalized names of the configured networks, sorted.
func (s *Service) Networks() []string {
	out := make([]string, 0, len(s.networks))
	for k := range s.networks {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Service) Client(ctx context.Context, network string) (*Client, error) {
	nk := NormalizeNetworkKey(network)
	n, ok := s.networks[nk]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNetwork, "%q", network)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[nk]; ok {
		return c, nil
	}

	caller, err := s.dial(ctx, n.RPCURL)
	if err != nil {
		return nil, err
	}
	log.Info("connected to network", "network", nk, "chain_id", n.ChainID)

	c := NewClient(nk, caller, s.cache, s.ttl)
	c.SetRetryConfig(s.retry)
	s.clients[nk] = c
	s.callers = append(s.callers, caller)
	return c, nil
}

func (s *Service) BalanceOf(ctx context.Context, network string, token, owner common.Address) (*big.Int, error) {
	c, err := s.Client(ctx, network)
	if err != nil {
		return nil, err
	}
	return c.BalanceOf(ctx, token, owner)
}

func (s *Service) TokenMetadata(ctx context.Context, network string, token common.Address) (TokenMetadata, error) {
	c, err := s.Client(ctx, network)
	if err != nil {
		return TokenMetadata{}, err
	}
	return c.TokenMetadata(ctx, token)
}

// Close closes every dialed client that supports it.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.callers {
		if closer, ok := c.(interface{ Close() }); ok {
			closer.Close()
		}
	}
	s.callers = nil
	s.clients = map[string]*Client{}
}
