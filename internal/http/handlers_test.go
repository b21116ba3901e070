package http

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/quantum-balances/internal/accounts"
	"github.com/quantumauth-io/quantum-balances/internal/assets"
	"github.com/quantumauth-io/quantum-balances/internal/chains"
	"github.com/quantumauth-io/quantum-balances/internal/chains/chainstest"
	"github.com/quantumauth-io/quantum-balances/internal/portfolio"
)

var (
	owner = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	usdc  = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	dai   = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	caller := chainstest.NewCaller()
	caller.SetNative(owner, new(big.Int).SetUint64(1_000_000_000_000_000_001))
	caller.AddToken(usdc, &chainstest.Token{Symbol: "USDC", Name: "USD Coin", Decimals: 6,
		Balances: map[common.Address]*big.Int{owner: big.NewInt(2_500_000)}})
	caller.AddToken(dai, &chainstest.Token{Symbol: "DAI", Name: "Dai Stablecoin", Decimals: 18})

	chain := chains.NewService(map[string]chains.Network{
		"sepolia": {ChainID: 11155111, RPCURL: "http://sepolia.local", Symbol: "ETH"},
	}, chainstest.Dial(map[string]*chainstest.Caller{"http://sepolia.local": caller}), nil, 0)
	t.Cleanup(chain.Close)

	am := assets.NewManager(filepath.Join(t.TempDir(), "assets.json"), chain)
	am.SetFetchDelay(0)
	am.SetNative("sepolia", "ETH", "Ether")
	require.NoError(t, am.EnsureStoreForNetwork(context.Background(), "sepolia", []string{usdc.Hex()}))

	reg, err := accounts.NewRegistry([]accounts.Account{{Name: "Main", Address: owner.Hex(), Kind: accounts.KindPrimary}})
	require.NoError(t, err)

	srv := NewServer(portfolio.NewService(chain, am, reg, 0), am, chain, NewMetrics())
	return NewRouter(srv, []string{"http://localhost:5173"})
}

func do(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, healthResponse{OK: true, Networks: []string{"sepolia"}}, decode[healthResponse](t, w))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestFormat(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		query string
		want  string
	}{
		{"amount=0x0&decimals=18", "0"},
		{"amount=0xde0b6b3a7640000&decimals=18", "1"},
		{"amount=0xde0b6b3a7640001&decimals=18", "1"},
		{"amount=0xde444324c2a8080&decimals=18", "1.001"},
		{"amount=0x1&decimals=18", "0.000000000000000001"},
		{"amount=0xde0b6b3a7640001&decimals=18&truncate=false", "1.000000000000000001"},
		{"amount=0xde444324c2a8080&decimals=18&digits=2", "1"},
	}

	for _, c := range cases {
		w := do(t, r, http.MethodGet, "/api/format?"+c.query, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, c.want, decode[formatResponse](t, w).Value, c.query)
	}
}

func TestFormat_BadRequest(t *testing.T) {
	r := newTestRouter(t)

	for _, q := range []string{
		"",
		"amount=0x1",
		"decimals=18",
		"amount=0xzz&decimals=18",
		"amount=1&decimals=18",
		"amount=0x1&decimals=-1",
		"amount=0x1&decimals=abc",
		"amount=0x1&decimals=18&digits=0x",
	} {
		w := do(t, r, http.MethodGet, "/api/format?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.NotEmpty(t, decode[errorResponse](t, w).Error, q)
	}

	w := do(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quantum_balances_format_errors_total 8")
	assert.Contains(t, w.Body.String(), `quantum_balances_http_requests_total{method="GET",route="/api/format",status="400"} 8`)
}

func TestChainNetwork(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/chains/0xaa36a7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, chainNetworkResponse{ChainID: "0xaa36a7", Network: "sepolia"}, decode[chainNetworkResponse](t, w))

	w = do(t, r, http.MethodGet, "/api/chains/0x1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/chains/0xzz", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/chains/+11155111", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssets(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/networks/sepolia/assets", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]assets.Asset](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "ETH", list[0].Symbol)
	assert.Equal(t, "USDC", list[1].Symbol)

	w = do(t, r, http.MethodPost, "/api/networks/sepolia/assets", `{"address":"`+strings.ToLower(dai.Hex())+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, assets.Asset{Address: dai.Hex(), Symbol: "DAI", Decimals: 18, Name: "Dai Stablecoin"}, decode[assets.Asset](t, w))

	w = do(t, r, http.MethodGet, "/api/networks/sepolia/assets/"+strings.ToLower(dai.Hex()), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DAI", decode[assets.Asset](t, w).Symbol)

	w = do(t, r, http.MethodGet, "/api/networks/sepolia/assets/0x0000000000000000000000000000000000000000", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ETH", decode[assets.Asset](t, w).Symbol)

	w = do(t, r, http.MethodGet, "/api/networks/mainnet/assets/"+usdc.Hex(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/networks/sepolia/assets/0x12", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/networks/sepolia/assets", `{"address":"0x1234"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/networks/sepolia/assets", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// no contract at this address
	w = do(t, r, http.MethodPost, "/api/networks/sepolia/assets", `{"address":"0x0000000000000000000000000000000000000001"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/networks/mainnet/assets", `{"address":"`+dai.Hex()+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, "/api/networks/sepolia/assets/"+dai.Hex(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodDelete, "/api/networks/sepolia/assets/"+dai.Hex(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, "/api/networks/sepolia/assets/0x0000000000000000000000000000000000000000", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccounts(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/networks/sepolia/accounts", "")
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[[]accounts.ListItem](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, "0x5aAe***eAed", items[0].ReducedAddress)
	assert.Equal(t, "1", items[0].Balance)

	w = do(t, r, http.MethodGet, "/api/networks/mainnet/accounts", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/networks/sepolia/accounts/"+strings.ToLower(owner.Hex()), "")
	require.Equal(t, http.StatusOK, w.Code)
	item := decode[accounts.ListItem](t, w)
	assert.Equal(t, "Main", item.Name)
	assert.Equal(t, "1", item.Balance)

	w = do(t, r, http.MethodGet, "/api/networks/sepolia/accounts/"+dai.Hex(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAccountBalances(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/networks/sepolia/accounts/"+owner.Hex()+"/balances", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]portfolio.Balance](t, w)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].Display)
	assert.Equal(t, "1.000000000000000001", got[0].Exact)
	assert.Equal(t, "2.5", got[1].Display)
	assert.Equal(t, "0x2625a0", got[1].Raw)
	assert.Equal(t, "2.5", got[1].Compact)

	w = do(t, r, http.MethodGet, "/api/networks/sepolia/accounts/nope/balances", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/networks/mainnet/accounts/"+owner.Hex()+"/balances", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/format", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
