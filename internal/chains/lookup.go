package chains

import (
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrUnknownChain   = errors.New("chains: chain not configured")
	ErrInvalidChainID = errors.New("chains: invalid chain id")
)

// explorerDefaults by chain id, used when a network has no explorer set.
var explorerDefaults = map[uint64]string{
	// Ethereum
	1:        "https://etherscan.io",
	11155111: "https://sepolia.etherscan.io",
	17000:    "https://holesky.etherscan.io",

	// Layer 2s
	42161:    "https://arbiscan.io",
	421614:   "https://sepolia.arbiscan.io",
	10:       "https://optimistic.etherscan.io",
	11155420: "https://sepolia-optimistic.etherscan.io",
	8453:     "https://basescan.org",
	84532:    "https://sepolia.basescan.org",
	137:      "https://polygonscan.com",

	// Scroll
	534352: "https://scrollscan.com",
	534351: "https://sepolia.scrollscan.com",
}

func DefaultExplorer(chainID uint64) string {
	return explorerDefaults[chainID]
}

// ParseChainID accepts a 0x hex quantity ("0xaa36a7") or a decimal string.
func ParseChainID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.Wrap(ErrInvalidChainID, "missing")
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if s[2:] == "" {
			return 0, errors.Wrapf(ErrInvalidChainID, "%q", s)
		}
		// hexutil rejects leading zeros
		digits := strings.TrimLeft(s[2:], "0")
		if digits == "" {
			return 0, nil
		}
		v, err := hexutil.DecodeUint64("0x" + digits)
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidChainID, "%q: %v", s, err)
		}
		return v, nil
	}

	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errors.Wrapf(ErrInvalidChainID, "%q", s)
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || !v.IsUint64() {
		return 0, errors.Wrapf(ErrInvalidChainID, "%q", s)
	}
	return v.Uint64(), nil
}

// NetworkForChainID finds the configured network key for a chain id.
func (s *Service) NetworkForChainID(chainID string) (string, error) {
	want, err := ParseChainID(chainID)
	if err != nil {
		return "", err
	}

	for _, name := range s.Networks() {
		if s.networks[name].ChainID == want {
			return name, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownChain, "%s", hexutil.EncodeUint64(want))
}
