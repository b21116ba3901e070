package balances

import "errors"

// ErrInvalidInput is returned for malformed amounts or out-of-range decimals.
var ErrInvalidInput = errors.New("balances: invalid input")
