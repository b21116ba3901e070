package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the API routes. allowedOrigins enables CORS for a browser UI
// served from another origin; empty disables CORS headers.
func NewRouter(s *Server, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(), s.metrics.middleware())

	if origins := uniqueStrings(allowedOrigins); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: origins,
			AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", requestIDHeader},
			MaxAge:       10 * time.Minute,
		}))
	}

	api := r.Group("/api")
	{
		api.GET("/health", s.Health)
		api.GET("/format", s.Format)
		api.GET("/chains/:chainId", s.ChainNetwork)

		net := api.Group("/networks/:network")
		net.GET("/assets", s.ListAssets)
		net.POST("/assets", s.AddAsset)
		net.GET("/assets/:address", s.GetAsset)
		net.DELETE("/assets/:address", s.RemoveAsset)
		net.GET("/accounts", s.ListAccounts)
		net.GET("/accounts/:address", s.GetAccount)
		net.GET("/accounts/:address/balances", s.AccountBalances)
	}

	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	return r
}
