// Package portfolio joins accounts, assets and chain balances into the
// display rows the wallet UI shows.
package portfolio

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"golang.org/x/sync/errgroup"

	"github.com/quantumauth-io/quantum-balances/internal/accounts"
	"github.com/quantumauth-io/quantum-balances/internal/assets"
	"github.com/quantumauth-io/quantum-balances/internal/balances"
	"github.com/quantumauth-io/quantum-balances/internal/chains"
	"github.com/quantumauth-io/quantum-balances/internal/constants"
)

const (
	defaultConcurrency    = 4
	CompactFractionDigits = 4
)

type BalanceReader interface {
	Network(network string) (chains.Network, error)
	BalanceOf(ctx context.Context, network string, token, owner common.Address) (*big.Int, error)
}

type AssetLister interface {
	ListForNetwork(network string) []assets.Asset
}

type Balance struct {
	Asset   assets.Asset `json:"asset"`
	Raw     string       `json:"raw,omitempty"`
	Display string       `json:"display,omitempty"`
	Exact   string       `json:"exact,omitempty"`
	// Compact is cut to CompactFractionDigits places for narrow views.
	Compact string `json:"compact,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type Service struct {
	chain       BalanceReader
	assets      AssetLister
	accounts    *accounts.Registry
	concurrency int
}

func NewService(chain BalanceReader, assetList AssetLister, registry *accounts.Registry, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		chain:       chain,
		assets:      assetList,
		accounts:    registry,
		concurrency: concurrency,
	}
}

// AccountBalances returns one entry per asset of network. A failed lookup is
// reported on its entry and does not fail the call.
func (s *Service) AccountBalances(ctx context.Context, network, address string) ([]Balance, error) {
	if _, err := s.chain.Network(network); err != nil {
		return nil, err
	}
	addr, err := accounts.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	owner := common.HexToAddress(addr)

	list := s.assets.ListForNetwork(network)
	out := make([]Balance, len(list))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, a := range list {
		i, a := i, a
		g.Go(func() error {
			out[i] = s.balance(ctx, network, a, owner)
			return nil
		})
	}
	_ = g.Wait()

	return out, nil
}

func (s *Service) balance(ctx context.Context, network string, a assets.Asset, owner common.Address) Balance {
	b := Balance{Asset: a}

	raw, err := s.chain.BalanceOf(ctx, network, common.HexToAddress(a.Address), owner)
	if err != nil {
		log.Warn("balance lookup failed", "network", network, "asset", a.Symbol, "owner", owner.Hex(), "error", err)
		b.Error = err.Error()
		return b
	}

	b.Raw = balances.ToHex(raw)
	b.Compact = balances.FormatUnitsTrim(raw, a.Decimals, CompactFractionDigits)
	if b.Display, err = balances.FormatUnits(raw, int(a.Decimals)); err != nil {
		b.Error = err.Error()
		return b
	}
	if b.Exact, err = balances.FormatUnits(raw, int(a.Decimals), balances.WithTruncate(false)); err != nil {
		b.Error = err.Error()
	}
	return b
}

// AccountList returns a list item per registered account with its native
// balance on network.
func (s *Service) AccountList(ctx context.Context, network string) ([]accounts.ListItem, error) {
	if _, err := s.chain.Network(network); err != nil {
		return nil, err
	}

	accs := s.accounts.List()
	out := make([]accounts.ListItem, len(accs))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, acc := range accs {
		i, acc := i, acc
		g.Go(func() error {
			out[i] = s.listItem(ctx, network, acc)
			return nil
		})
	}
	_ = g.Wait()

	return out, nil
}

// Account returns the list item of one registered account.
func (s *Service) Account(ctx context.Context, network, address string) (accounts.ListItem, error) {
	if _, err := s.chain.Network(network); err != nil {
		return accounts.ListItem{}, err
	}
	acc, err := s.accounts.Get(address)
	if err != nil {
		return accounts.ListItem{}, err
	}
	return s.listItem(ctx, network, acc), nil
}

func (s *Service) listItem(ctx context.Context, network string, acc accounts.Account) accounts.ListItem {
	item := accounts.NewListItem(acc, "")
	wei, err := s.chain.BalanceOf(ctx, network, common.Address{}, common.HexToAddress(acc.Address))
	if err != nil {
		log.Warn("native balance lookup failed", "network", network, "account", acc.Address, "error", err)
		item.Error = err.Error()
		return item
	}
	if item.Balance, err = balances.FormatUnits(wei, constants.NativeDecimals); err != nil {
		item.Error = err.Error()
	}
	return item
}
