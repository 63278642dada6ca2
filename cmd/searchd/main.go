// Package main wires together the search service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fastwebsearch/internal/api"
	"fastwebsearch/internal/cache"
	"fastwebsearch/internal/clock/system"
	"fastwebsearch/internal/config"
	"fastwebsearch/internal/extract"
	"fastwebsearch/internal/fetcher"
	"fastwebsearch/internal/gate"
	"fastwebsearch/internal/logging"
	"fastwebsearch/internal/orchestrator"
	"fastwebsearch/internal/provider/brave"
	"fastwebsearch/internal/proxypool"
	"fastwebsearch/internal/robots"
	"fastwebsearch/internal/search"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("service failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	clk := system.New()

	proxies, err := search.ParseProxies(cfg.Proxy.Endpoints)
	if err != nil {
		return fmt.Errorf("parse proxy endpoints: %w", err)
	}

	prober := proxypool.NewHTTPProber(cfg.Proxy.ProbeURL, cfg.VerifyTimeout())
	pool := proxypool.New(proxies, prober, clk, logger.Named("proxypool"))

	searchGate, err := gate.New(gate.Config{
		MaxConcurrent: cfg.Search.MaxConcurrent,
		RateLimit:     cfg.Search.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("build search gate: %w", err)
	}
	fetchGate, err := gate.New(gate.Config{
		MaxConcurrent: cfg.Search.MaxConcurrent,
		RateLimit:     cfg.Search.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("build fetch gate: %w", err)
	}

	checker := robots.NewChecker(nil, logger.Named("robots"))
	transport := fetcher.NewCollyTransport(cfg.Search.UserAgent)
	contentCache := cache.New(cfg.CacheTTL(), clk)

	pipeline := fetcher.New(
		checker,
		transport,
		fetchGate,
		pool,
		pool.Cycle(),
		contentCache,
		extract.New(),
		clk,
		fetcher.Config{
			MaxRetries:  cfg.HTTP.MaxRetries,
			Timeout:     cfg.FetchTimeout(),
			BackoffBase: cfg.BackoffBase(),
			UserAgent:   cfg.Search.UserAgent,
		},
		logger.Named("fetcher"),
	)

	provider := brave.New(cfg.Brave.APIKey, clk)
	orch := orchestrator.New(provider, searchGate, logger.Named("orchestrator"))

	server := api.NewServer(orch, pipeline, logger.Named("api"))
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("search service listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("search service stopped")
	return nil
}
