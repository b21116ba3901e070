package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/quantum-balances/internal/accounts"
	"github.com/quantumauth-io/quantum-balances/internal/assets"
	"github.com/quantumauth-io/quantum-balances/internal/balances"
	"github.com/quantumauth-io/quantum-balances/internal/chains"
)

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// writeErr maps domain errors to HTTP statuses.
func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, balances.ErrInvalidInput),
		errors.Is(err, accounts.ErrInvalidAddress),
		errors.Is(err, assets.ErrNativeAsset),
		errors.Is(err, chains.ErrNoCode),
		errors.Is(err, chains.ErrInvalidChainID):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, chains.ErrUnknownNetwork),
		errors.Is(err, chains.ErrUnknownChain),
		errors.Is(err, assets.ErrNotFound),
		errors.Is(err, accounts.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		log.Error("request failed", "request_id", c.GetString(requestIDKey), "path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, HTTPErrorInternalText)
	}
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		ss := strings.TrimSpace(s)
		if ss == "" {
			continue
		}
		if _, ok := seen[ss]; ok {
			continue
		}
		seen[ss] = struct{}{}
		out = append(out, ss)
	}
	return out
}
