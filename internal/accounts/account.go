package accounts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidAddress = errors.New("accounts: invalid address")
	ErrUnknownKind    = errors.New("accounts: unknown account kind")
	ErrDuplicate      = errors.New("accounts: duplicate address")
	ErrNotFound       = errors.New("accounts: not found")
)

type Kind string

const (
	KindPrimary   Kind = "primary"
	KindSecondary Kind = "secondary"
	KindLedger    Kind = "ledger"
	KindTrezor    Kind = "trezor"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindSecondary, nil
	case KindPrimary, KindSecondary, KindLedger, KindTrezor:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// IsHardware reports whether keys for this kind live on a hardware device.
func (k Kind) IsHardware() bool {
	return k == KindLedger || k == KindTrezor
}

type Account struct {
	Name    string `mapstructure:"name" json:"name"`
	Address string `mapstructure:"address" json:"address"`
	Kind    Kind   `mapstructure:"kind" json:"kind"`
}

// ListItem is one row of the account list as the UI renders it.
type ListItem struct {
	Name             string `json:"name"`
	Address          string `json:"address"`
	ReducedAddress   string `json:"reducedAddress"`
	IsHardwareWallet bool   `json:"isHardwareWallet"`
	Balance          string `json:"balance,omitempty"`
	Error            string `json:"error,omitempty"`
}

func NewListItem(a Account, displayBalance string) ListItem {
	return ListItem{
		Name:             a.Name,
		Address:          a.Address,
		ReducedAddress:   ReduceAddress(a.Address),
		IsHardwareWallet: a.Kind.IsHardware(),
		Balance:          displayBalance,
	}
}

// ReduceAddress shortens an address to "0x1234***abcd".
func ReduceAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "***" + addr[len(addr)-4:]
}

// NormalizeAddress returns the EIP-55 checksummed form of addr.
func NormalizeAddress(addr string) (string, error) {
	a := strings.TrimSpace(addr)
	if a == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	if !strings.HasPrefix(a, "0x") && !strings.HasPrefix(a, "0X") {
		a = "0x" + a
	}
	a = strings.ToLower(a)
	if !common.IsHexAddress(a) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return common.HexToAddress(a).Hex(), nil
}
