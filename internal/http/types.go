package http

import "github.com/quantumauth-io/quantum-balances/internal/constants"

const (
	HTTPErrorInvalidJSONText = "invalid JSON"
	HTTPErrorInternalText    = "internal error"

	requestIDHeader = constants.RequestIDHeader
	requestIDKey    = "request_id"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	OK       bool     `json:"ok"`
	Networks []string `json:"networks"`
}

type chainNetworkResponse struct {
	ChainID string `json:"chainId"`
	Network string `json:"network"`
}

type formatQuery struct {
	Amount   string `form:"amount" binding:"required"`
	Decimals *int   `form:"decimals" binding:"required"`
	Truncate *bool  `form:"truncate"`
	Digits   int    `form:"digits" binding:"omitempty,min=1,max=78"`
}

type formatResponse struct {
	Amount    string `json:"amount"`
	Decimals  int    `json:"decimals"`
	Truncated bool   `json:"truncated"`
	Value     string `json:"value"`
}

type addAssetRequest struct {
	Address string `json:"address" binding:"required"`
}
