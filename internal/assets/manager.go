package assets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/quantum-balances/internal/accounts"
	"github.com/quantumauth-io/quantum-balances/internal/chains"
	"github.com/quantumauth-io/quantum-balances/internal/constants"
	"github.com/quantumauth-io/quantum-balances/internal/securefile"
)

var (
	ErrNotFound    = errors.New("assets: not found")
	ErrNativeAsset = errors.New("assets: native asset cannot be changed")
)

// MetadataFetcher reads token metadata from chain.
type MetadataFetcher interface {
	TokenMetadata(ctx context.Context, network string, token common.Address) (chains.TokenMetadata, error)
}

// Manager keeps the per-network asset list in assets.json.
type Manager struct {
	mu         sync.RWMutex
	path       string
	fetcher    MetadataFetcher
	natives    map[string]Asset
	store      Store
	fetchDelay time.Duration
}

func NewManager(path string, fetcher MetadataFetcher) *Manager {
	return &Manager{
		path:       path,
		fetcher:    fetcher,
		natives:    map[string]Asset{},
		store:      newStore(),
		fetchDelay: 250 * time.Millisecond,
	}
}

// NewManagerFromConfigDir resolves assets.json with securefile.ResolvePath.
func NewManagerFromConfigDir(fetcher MetadataFetcher) (*Manager, error) {
	path, err := securefile.ResolvePath(constants.AppName, constants.AssetsFile)
	if err != nil {
		return nil, err
	}
	return NewManager(path, fetcher), nil
}

func (m *Manager) Path() string { return m.path }

// SetFetchDelay spaces out metadata fetches during EnsureStoreForNetwork.
func (m *Manager) SetFetchDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchDelay = d
}

// SetNative registers the native coin of a network. It is listed first and
// never persisted.
func (m *Manager) SetNative(network, symbol, name string) {
	nk := chains.NormalizeNetworkKey(network)
	if symbol == "" {
		symbol = "ETH"
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.natives[nk] = Asset{
		Address:  constants.NativeAddr,
		Symbol:   symbol,
		Decimals: constants.NativeDecimals,
		Name:     name,
	}
}

// Load reads assets.json into memory. A missing file leaves an empty store.
func (m *Manager) Load(ctx context.Context) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked()
}

func (m *Manager) loadLocked() error {
	if !securefile.Exists(m.path) {
		m.store = newStore()
		return nil
	}

	s, err := securefile.ReadJSON[Store](m.path)
	if err != nil {
		return fmt.Errorf("assets: load %s: %w", m.path, err)
	}
	if s.Schema == 0 {
		s.Schema = constants.SchemaV1
	}

	normalized := newStore()
	normalized.Schema = s.Schema
	for netKey, byAddr := range s.Networks {
		nk := chains.NormalizeNetworkKey(netKey)
		if nk == "" {
			continue
		}
		if normalized.Networks[nk] == nil {
			normalized.Networks[nk] = map[string]Asset{}
		}
		for addrKey, asset := range byAddr {
			addr, err := accounts.NormalizeAddress(addrKey)
			if err != nil {
				log.Warn("skipping asset entry", "network", nk, "address", addrKey)
				continue
			}
			asset.Address = addr
			if asset.IsNative() {
				log.Warn("skipping native asset entry", "network", nk)
				continue
			}
			normalized.Networks[nk][addr] = asset
		}
	}

	m.store = normalized
	return nil
}

// EnsureStoreForNetwork loads assets.json if present and fetches metadata for
// any default address not yet known. User-added assets are kept.
func (m *Manager) EnsureStoreForNetwork(ctx context.Context, network string, defaultAddrs []string) error {
	nk := chains.NormalizeNetworkKey(network)
	if nk == "" {
		return fmt.Errorf("assets: network must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(); err != nil {
		return err
	}
	byAddr := cloneAssets(m.store.Networks[nk])

	changed := !securefile.Exists(m.path)
	fetched := 0
	for _, raw := range defaultAddrs {
		addr, err := accounts.NormalizeAddress(raw)
		if err != nil {
			return fmt.Errorf("assets: defaults[%s]: %w", nk, err)
		}
		if addr == constants.NativeAddr {
			continue
		}
		if _, ok := byAddr[addr]; ok {
			continue
		}

		if fetched > 0 && m.fetchDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.fetchDelay):
			}
		}
		fetched++

		a, err := m.fetchAsset(ctx, nk, addr)
		if err != nil {
			return fmt.Errorf("assets: fetch %s[%s]: %w", nk, addr, err)
		}
		byAddr[a.Address] = a
		changed = true
	}

	if changed {
		return m.commitLocked(nk, byAddr)
	}
	return nil
}

// ListForNetwork returns the native asset first, then tokens by symbol.
func (m *Manager) ListForNetwork(network string) []Asset {
	nk := chains.NormalizeNetworkKey(network)

	m.mu.RLock()
	defer m.mu.RUnlock()

	byAddr := m.store.Networks[nk]
	out := make([]Asset, 0, len(byAddr)+1)
	if native, ok := m.natives[nk]; ok {
		out = append(out, native)
	}

	tokens := make([]Asset, 0, len(byAddr))
	for _, a := range byAddr {
		tokens = append(tokens, a)
	}
	// stable for UI
	sort.Slice(tokens, func(i, j int) bool {
		si, sj := strings.ToLower(tokens[i].Symbol), strings.ToLower(tokens[j].Symbol)
		if si != sj {
			return si < sj
		}
		return tokens[i].Address < tokens[j].Address
	})
	return append(out, tokens...)
}

func (m *Manager) Get(network, address string) (Asset, error) {
	nk := chains.NormalizeNetworkKey(network)
	addr, err := accounts.NormalizeAddress(address)
	if err != nil {
		return Asset{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if addr == constants.NativeAddr {
		if native, ok := m.natives[nk]; ok {
			return native, nil
		}
	}
	if a, ok := m.store.Networks[nk][addr]; ok {
		return a, nil
	}
	return Asset{}, fmt.Errorf("%w: %s on %s", ErrNotFound, addr, nk)
}

// AddAsset fetches token metadata from chain and stores the asset.
func (m *Manager) AddAsset(ctx context.Context, network, address string) (Asset, error) {
	nk := chains.NormalizeNetworkKey(network)
	addr, err := accounts.NormalizeAddress(address)
	if err != nil {
		return Asset{}, err
	}
	if addr == constants.NativeAddr {
		return Asset{}, ErrNativeAsset
	}

	// fetch outside the lock, RPC may be slow
	a, err := m.fetchAsset(ctx, nk, addr)
	if err != nil {
		return Asset{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byAddr := cloneAssets(m.store.Networks[nk])
	byAddr[a.Address] = a
	if err := m.commitLocked(nk, byAddr); err != nil {
		return Asset{}, err
	}
	log.Info("asset added", "network", nk, "address", a.Address, "symbol", a.Symbol)
	return a, nil
}

func (m *Manager) RemoveAsset(ctx context.Context, network, address string) error {
	_ = ctx

	nk := chains.NormalizeNetworkKey(network)
	addr, err := accounts.NormalizeAddress(address)
	if err != nil {
		return err
	}
	if addr == constants.NativeAddr {
		return ErrNativeAsset
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.store.Networks[nk][addr]; !ok {
		return fmt.Errorf("%w: %s on %s", ErrNotFound, addr, nk)
	}

	byAddr := cloneAssets(m.store.Networks[nk])
	delete(byAddr, addr)
	if len(byAddr) == 0 {
		byAddr = nil
	}
	if err := m.commitLocked(nk, byAddr); err != nil {
		return err
	}
	log.Info("asset removed", "network", nk, "address", addr)
	return nil
}

func (m *Manager) fetchAsset(ctx context.Context, network, addr string) (Asset, error) {
	if m.fetcher == nil {
		return Asset{}, fmt.Errorf("assets: no metadata fetcher")
	}

	md, err := m.fetcher.TokenMetadata(ctx, network, common.HexToAddress(addr))
	if err != nil {
		return Asset{}, err
	}
	if strings.TrimSpace(md.Symbol) == "" {
		return Asset{}, fmt.Errorf("assets: token %s has no symbol", addr)
	}

	return Asset{
		Address:  addr,
		Symbol:   md.Symbol,
		Decimals: md.Decimals,
		Name:     md.Name,
	}, nil
}

// commitLocked writes the store with network nk set to byAddr (nil drops the
// network) and swaps it in only after the write succeeded.
func (m *Manager) commitLocked(nk string, byAddr map[string]Asset) error {
	next := Store{
		Schema:   m.store.Schema,
		Networks: make(map[string]map[string]Asset, len(m.store.Networks)+1),
	}
	for k, v := range m.store.Networks {
		next.Networks[k] = v
	}
	if byAddr == nil {
		delete(next.Networks, nk)
	} else {
		next.Networks[nk] = byAddr
	}

	if err := securefile.WriteJSON(m.path, next, constants.FilePerm, constants.DirectoryPerm); err != nil {
		return fmt.Errorf("assets: persist %s: %w", m.path, err)
	}
	m.store = next
	return nil
}

func cloneAssets(in map[string]Asset) map[string]Asset {
	out := make(map[string]Asset, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
