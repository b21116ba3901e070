// Package balances turns raw on-chain amounts (smallest units, e.g. wei) into
// display strings and back.
//
// Amounts are arbitrary-precision: nothing here goes through a fixed-width
// integer or a float.
package balances

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/quantumauth-io/quantum-balances/internal/constants"
)

type options struct {
	truncate          bool
	significantDigits int
}

// Option tweaks how a display value is produced.
type Option func(*options)

// WithTruncate toggles truncation of the fractional part. Default true.
func WithTruncate(truncate bool) Option {
	return func(o *options) { o.truncate = truncate }
}

// WithSignificantDigits sets how many significant digits survive truncation.
// Integer digits count toward the limit but are never dropped.
func WithSignificantDigits(n int) Option {
	return func(o *options) { o.significantDigits = n }
}

func defaultOptions() options {
	return options{
		truncate:          true,
		significantDigits: constants.DefaultSignificantDigits,
	}
}

// FormatInputValue formats a 0x-prefixed hex amount with the given decimals.
//
// Examples:
//
//	"0xde0b6b3a7640000", 18, true  -> "1"
//	"0xde0b6b3a7640001", 18, true  -> "1"
//	"0xde0b6b3a7640001", 18, false -> "1.000000000000000001"
//	"0x1", 18, true                -> "0.000000000000000001"
func FormatInputValue(amountHex string, decimals int, truncate bool) (string, error) {
	return Format(amountHex, decimals, WithTruncate(truncate))
}

// Format is FormatInputValue with options. Truncation is on by default.
func Format(amountHex string, decimals int, opts ...Option) (string, error) {
	amount, err := ParseAmountHex(amountHex)
	if err != nil {
		return "", err
	}
	return FormatUnits(amount, decimals, opts...)
}

// FormatUnits renders amount / 10^decimals. Truncation never rounds up.
func FormatUnits(amount *big.Int, decimals int, opts ...Option) (string, error) {
	if amount == nil {
		return "", fmt.Errorf("%w: nil amount", ErrInvalidInput)
	}
	if amount.Sign() < 0 {
		return "", fmt.Errorf("%w: negative amount", ErrInvalidInput)
	}
	if err := checkDecimals(decimals); err != nil {
		return "", err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.significantDigits < 1 {
		return "", fmt.Errorf("%w: significant digits must be positive, got %d", ErrInvalidInput, o.significantDigits)
	}

	if amount.Sign() == 0 {
		return "0", nil
	}

	value := decimal.NewFromBigInt(amount, -int32(decimals))
	if o.truncate {
		value = value.Truncate(displayPlaces(value, o.significantDigits))
	}
	return value.String(), nil
}

// displayPlaces returns the number of fractional digits needed to show sig
// significant digits of a positive value.
func displayPlaces(value decimal.Decimal, sig int) int32 {
	// power of ten of the most significant digit
	msd := value.NumDigits() + int(value.Exponent()) - 1
	places := sig - 1 - msd
	if places < 0 {
		return 0
	}
	return int32(places)
}

// FormatUnitsTrim converts a token balance to a compact string:
// - divides by 10^decimals
// - cuts the fraction to maxFrac places
// - removes trailing zeros
//
// Examples:
//
//	balance=1234500000000000000, decimals=18, maxFrac=4 -> "1.2345"
//	balance=1000000000000000000, decimals=18, maxFrac=4 -> "1"
//	balance=1, decimals=18, maxFrac=4 -> "0"
func FormatUnitsTrim(amount *big.Int, decimals uint8, maxFrac int) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}
	if maxFrac < 0 {
		maxFrac = 0
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).Truncate(int32(maxFrac)).String()
}

// ParseAmountHex parses a 0x-prefixed hex quantity of any size.
// Leading zeros are accepted; signs, whitespace and underscores are not.
func ParseAmountHex(s string) (*big.Int, error) {
	if len(s) < 2 || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return nil, fmt.Errorf("%w: amount %q must start with 0x", ErrInvalidInput, s)
	}
	digits := s[2:]
	if digits == "" {
		return nil, fmt.Errorf("%w: amount %q has no digits", ErrInvalidInput, s)
	}
	for _, c := range digits {
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') && !(c >= 'A' && c <= 'F') {
			return nil, fmt.Errorf("%w: amount %q is not hex", ErrInvalidInput, s)
		}
	}

	v, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, fmt.Errorf("%w: amount %q is not hex", ErrInvalidInput, s)
	}
	return v, nil
}

// ParseUnits is the inverse of FormatUnits without truncation: "1.5" with 18
// decimals becomes 1500000000000000000. Values needing more than decimals
// fractional digits are rejected.
func ParseUnits(display string, decimals int) (*big.Int, error) {
	if err := checkDecimals(decimals); err != nil {
		return nil, err
	}

	s := strings.TrimSpace(display)
	if s == "" {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidInput)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidInput, display, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidInput, display)
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidInput, display, decimals)
	}
	return scaled.BigInt(), nil
}

// ToHex renders amount as a 0x hex quantity ("0x0" for zero).
func ToHex(amount *big.Int) string {
	if amount == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(amount)
}

func checkDecimals(decimals int) error {
	if decimals < 0 {
		return fmt.Errorf("%w: decimals must not be negative, got %d", ErrInvalidInput, decimals)
	}
	if decimals > constants.MaxDecimals {
		return fmt.Errorf("%w: decimals %d above limit %d", ErrInvalidInput, decimals, constants.MaxDecimals)
	}
	return nil
}
