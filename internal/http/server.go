package http

import (
	"context"

	"github.com/quantumauth-io/quantum-balances/internal/accounts"
	"github.com/quantumauth-io/quantum-balances/internal/assets"
	"github.com/quantumauth-io/quantum-balances/internal/chains"
	"github.com/quantumauth-io/quantum-balances/internal/portfolio"
)

type Portfolio interface {
	AccountBalances(ctx context.Context, network, address string) ([]portfolio.Balance, error)
	AccountList(ctx context.Context, network string) ([]accounts.ListItem, error)
	Account(ctx context.Context, network, address string) (accounts.ListItem, error)
}

type AssetStore interface {
	ListForNetwork(network string) []assets.Asset
	Get(network, address string) (assets.Asset, error)
	AddAsset(ctx context.Context, network, address string) (assets.Asset, error)
	RemoveAsset(ctx context.Context, network, address string) error
}

type NetworkLookup interface {
	Networks() []string
	Network(network string) (chains.Network, error)
	NetworkForChainID(chainID string) (string, error)
}

type Server struct {
	portfolio Portfolio
	assets    AssetStore
	networks  NetworkLookup
	metrics   *Metrics
}

func NewServer(p Portfolio, a AssetStore, n NetworkLookup, m *Metrics) *Server {
	if m == nil {
		m = NewMetrics()
	}
	return &Server{
		portfolio: p,
		assets:    a,
		networks:  n,
		metrics:   m,
	}
}
