package chains_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/quantum-balances/internal/chains"
)

func TestParseChainID(t *testing.T) {
	cases := map[string]uint64{
		"0xaa36a7":  11155111,
		"0XAA36A7":  11155111,
		"0x01":      1,
		"0x0":       0,
		" 11155111": 11155111,
		"137":       137,
	}
	for in, want := range cases {
		got, err := chains.ParseChainID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "0x", "0xzz", "-1", "abc", "0x1ffffffffffffffff", "+1", "1_000", "18446744073709551616"} {
		_, err := chains.ParseChainID(in)
		assert.Error(t, err, in)
	}
}

func TestNetworkForChainID(t *testing.T) {
	svc := chains.NewService(map[string]chains.Network{
		"sepolia": {ChainID: 11155111, RPCURL: "http://sepolia.local"},
		"local":   {ChainID: 31337, RPCURL: "http://localhost:8545", Explorer: "http://explorer.local"},
	}, nil, nil, 0)

	name, err := svc.NetworkForChainID("0xaa36a7")
	require.NoError(t, err)
	assert.Equal(t, "sepolia", name)

	name, err = svc.NetworkForChainID("31337")
	require.NoError(t, err)
	assert.Equal(t, "local", name)

	_, err = svc.NetworkForChainID("0x1")
	assert.True(t, errors.Is(err, chains.ErrUnknownChain))

	n, err := svc.Network("sepolia")
	require.NoError(t, err)
	assert.Equal(t, "https://sepolia.etherscan.io", n.Explorer)

	n, err = svc.Network("local")
	require.NoError(t, err)
	assert.Equal(t, "http://explorer.local", n.Explorer)
}
