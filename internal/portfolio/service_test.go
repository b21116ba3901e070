package portfolio_test

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/quantum-balances/internal/accounts"
	"github.com/quantumauth-io/quantum-balances/internal/assets"
	"github.com/quantumauth-io/quantum-balances/internal/chains"
	"github.com/quantumauth-io/quantum-balances/internal/chains/chainstest"
	"github.com/quantumauth-io/quantum-balances/internal/portfolio"
)

var (
	primary = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	cold    = common.HexToAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	usdc    = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	dai     = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	wei1    = new(big.Int).SetUint64(1_000_000_000_000_000_001)
	wei2    = new(big.Int).SetUint64(1_001_000_000_000_000_128)
	micro   = big.NewInt(1_234_567)
)

type fixture struct {
	caller *chainstest.Caller
	chain  *chains.Service
	svc    *portfolio.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	caller := chainstest.NewCaller()
	caller.SetNative(primary, wei1)
	caller.SetNative(cold, wei2)
	caller.AddToken(usdc, &chainstest.Token{Symbol: "USDC", Name: "USD Coin", Decimals: 6,
		Balances: map[common.Address]*big.Int{primary: micro}})
	caller.AddToken(dai, &chainstest.Token{Symbol: "DAI", Decimals: 18})

	chain := chains.NewService(map[string]chains.Network{
		"sepolia": {ChainID: 11155111, RPCURL: "http://sepolia.local", Symbol: "ETH"},
	}, chainstest.Dial(map[string]*chainstest.Caller{"http://sepolia.local": caller}), nil, 0)
	chain.SetRetryConfig(nil)
	t.Cleanup(chain.Close)

	am := assets.NewManager(filepath.Join(t.TempDir(), "assets.json"), chain)
	am.SetFetchDelay(0)
	am.SetNative("sepolia", "ETH", "Ether")
	require.NoError(t, am.EnsureStoreForNetwork(ctx, "sepolia", []string{usdc.Hex(), dai.Hex()}))

	reg, err := accounts.NewRegistry([]accounts.Account{
		{Name: "Main", Address: primary.Hex(), Kind: accounts.KindPrimary},
		{Name: "Cold", Address: cold.Hex(), Kind: accounts.KindLedger},
	})
	require.NoError(t, err)

	return fixture{
		caller: caller,
		chain:  chain,
		svc:    portfolio.NewService(chain, am, reg, 2),
	}
}

func TestAccountBalances(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.AccountBalances(context.Background(), "sepolia", primary.Hex())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "ETH", got[0].Asset.Symbol)
	assert.Equal(t, "0xde0b6b3a7640001", got[0].Raw)
	assert.Equal(t, "1", got[0].Display)
	assert.Equal(t, "1.000000000000000001", got[0].Exact)
	assert.Equal(t, "1", got[0].Compact)

	assert.Equal(t, "DAI", got[1].Asset.Symbol)
	assert.Equal(t, "0x0", got[1].Raw)
	assert.Equal(t, "0", got[1].Display)
	assert.Equal(t, "0", got[1].Compact)

	assert.Equal(t, "USDC", got[2].Asset.Symbol)
	assert.Equal(t, "1.23456", got[2].Display)
	assert.Equal(t, "1.234567", got[2].Exact)
	assert.Equal(t, "1.2345", got[2].Compact)
	assert.Empty(t, got[2].Error)
}

func TestAccountBalances_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AccountBalances(context.Background(), "mainnet", primary.Hex())
	assert.True(t, errors.Is(err, chains.ErrUnknownNetwork))

	_, err = f.svc.AccountBalances(context.Background(), "sepolia", "0x123")
	assert.ErrorIs(t, err, accounts.ErrInvalidAddress)

	f.caller.Fail = errors.New("rpc down")
	got, err := f.svc.AccountBalances(context.Background(), "sepolia", primary.Hex())
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, b := range got {
		assert.Contains(t, b.Error, "rpc down")
		assert.Empty(t, b.Display)
		assert.Empty(t, b.Compact)
	}
}

func TestAccountList(t *testing.T) {
	f := newFixture(t)

	items, err := f.svc.AccountList(context.Background(), "sepolia")
	require.NoError(t, err)

	assert.Equal(t, []accounts.ListItem{
		{
			Name:           "Main",
			Address:        primary.Hex(),
			ReducedAddress: "0x5aAe***eAed",
			Balance:        "1",
		},
		{
			Name:             "Cold",
			Address:          cold.Hex(),
			ReducedAddress:   "0xfB69***d359",
			IsHardwareWallet: true,
			Balance:          "1.001",
		},
	}, items)

	_, err = f.svc.AccountList(context.Background(), "mainnet")
	assert.Error(t, err)
}

func TestAccount(t *testing.T) {
	f := newFixture(t)

	item, err := f.svc.Account(context.Background(), "sepolia", strings.ToLower(cold.Hex()))
	require.NoError(t, err)
	assert.Equal(t, "Cold", item.Name)
	assert.True(t, item.IsHardwareWallet)
	assert.Equal(t, "1.001", item.Balance)

	_, err = f.svc.Account(context.Background(), "sepolia", dai.Hex())
	assert.ErrorIs(t, err, accounts.ErrNotFound)

	_, err = f.svc.Account(context.Background(), "mainnet", primary.Hex())
	assert.ErrorIs(t, err, chains.ErrUnknownNetwork)

	f.caller.Fail = errors.New("rpc down")
	item, err = f.svc.Account(context.Background(), "sepolia", primary.Hex())
	require.NoError(t, err)
	assert.Contains(t, item.Error, "rpc down")
	assert.Empty(t, item.Balance)
}
