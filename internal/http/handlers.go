package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quantumauth-io/quantum-balances/internal/balances"
)

func (s *Server) Health(c *gin.Context) {
	resp := healthResponse{OK: true, Networks: []string{}}
	if s.networks != nil {
		resp.Networks = s.networks.Networks()
	}
	c.JSON(http.StatusOK, resp)
}

// Format renders a raw hex amount for display:
// GET /api/format?amount=0xde0b6b3a7640001&decimals=18&truncate=false
func (s *Server) Format(c *gin.Context) {
	var q formatQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.metrics.formatErrors.Inc()
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	truncate := true
	if q.Truncate != nil {
		truncate = *q.Truncate
	}
	opts := []balances.Option{balances.WithTruncate(truncate)}
	if q.Digits > 0 {
		opts = append(opts, balances.WithSignificantDigits(q.Digits))
	}

	value, err := balances.Format(q.Amount, *q.Decimals, opts...)
	if err != nil {
		s.metrics.formatErrors.Inc()
		writeErr(c, err)
		return
	}

	c.JSON(http.StatusOK, formatResponse{
		Amount:    q.Amount,
		Decimals:  *q.Decimals,
		Truncated: truncate,
		Value:     value,
	})
}

// ChainNetwork maps a wallet-reported chain id to a configured network.
func (s *Server) ChainNetwork(c *gin.Context) {
	name, err := s.networks.NetworkForChainID(c.Param("chainId"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, chainNetworkResponse{ChainID: c.Param("chainId"), Network: name})
}

func (s *Server) ListAssets(c *gin.Context) {
	c.JSON(http.StatusOK, s.assets.ListForNetwork(c.Param("network")))
}

func (s *Server) AddAsset(c *gin.Context) {
	var req addAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, HTTPErrorInvalidJSONText)
		return
	}

	a, err := s.assets.AddAsset(c.Request.Context(), c.Param("network"), req.Address)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) GetAsset(c *gin.Context) {
	if _, err := s.networks.Network(c.Param("network")); err != nil {
		writeErr(c, err)
		return
	}
	a, err := s.assets.Get(c.Param("network"), c.Param("address"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) RemoveAsset(c *gin.Context) {
	if err := s.assets.RemoveAsset(c.Request.Context(), c.Param("network"), c.Param("address")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ListAccounts(c *gin.Context) {
	items, err := s.portfolio.AccountList(c.Request.Context(), c.Param("network"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) GetAccount(c *gin.Context) {
	item, err := s.portfolio.Account(c.Request.Context(), c.Param("network"), c.Param("address"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) AccountBalances(c *gin.Context) {
	out, err := s.portfolio.AccountBalances(c.Request.Context(), c.Param("network"), c.Param("address"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
