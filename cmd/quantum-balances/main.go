package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quantumauth-io/quantum-go-utils/log"

	clientconfig "github.com/quantumauth-io/quantum-balances/cmd/quantum-balances/config"
	"github.com/quantumauth-io/quantum-balances/internal/accounts"
	"github.com/quantumauth-io/quantum-balances/internal/assets"
	"github.com/quantumauth-io/quantum-balances/internal/chains"
	balanceshttp "github.com/quantumauth-io/quantum-balances/internal/http"
	"github.com/quantumauth-io/quantum-balances/internal/portfolio"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	log.Info("quantum-balances",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := clientconfig.Load()
	if err != nil {
		log.Fatal("failed to parse config", "error", err)
	}

	cache, err := chains.NewBalanceCache()
	if err != nil {
		log.Fatal("failed to create balance cache", "error", err)
	}
	defer cache.Close()

	chainSvc := chains.NewService(cfg.Networks, chains.DialEthclient, cache, cfg.Balances.CacheTTL)
	defer chainSvc.Close()

	retryCfg := chains.DefaultRetryConfig()
	retryCfg.MaxNumRetries = cfg.Balances.MaxRetries
	chainSvc.SetRetryConfig(retryCfg)

	assetManager, err := assets.NewManagerFromConfigDir(chainSvc)
	if err != nil {
		log.Fatal("failed to resolve assets path", "error", err)
	}
	assetManager.SetFetchDelay(cfg.Balances.FetchDelay)

	names := make([]string, 0, len(cfg.Networks))
	for name := range cfg.Networks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n := cfg.Networks[name]
		assetManager.SetNative(name, n.Symbol, n.Name)
		if err = assetManager.EnsureStoreForNetwork(ctx, name, n.Assets); err != nil {
			// an unreachable RPC should not keep the other networks down
			log.Warn("failed to prepare assets", "network", name, "error", err)
		}
	}
	log.Info("assets ready", "path", assetManager.Path(), "networks", len(names))

	registry, err := accounts.NewRegistry(cfg.Accounts)
	if err != nil {
		log.Fatal("invalid accounts", "error", err)
	}

	portfolioSvc := portfolio.NewService(chainSvc, assetManager, registry, cfg.Balances.Concurrency)

	gin.SetMode(gin.ReleaseMode)
	srv := balanceshttp.NewServer(portfolioSvc, assetManager, chainSvc, balanceshttp.NewMetrics())
	handler := balanceshttp.NewRouter(srv, cfg.Server.AllowedOrigins)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	} else {
		log.Info("HTTP server gracefully stopped")
	}
}
