package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boilerevents/boiler-events/app/api"
	"github.com/boilerevents/boiler-events/app/cache"
	"github.com/boilerevents/boiler-events/app/cfg"
	"github.com/boilerevents/boiler-events/app/enricher"
	"github.com/boilerevents/boiler-events/app/normalizer"
	"github.com/boilerevents/boiler-events/app/pipeline"
	"github.com/boilerevents/boiler-events/app/scraper"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)
	slog.Info("Starting Boiler Events server...", "version", appCfg.Version)

	// Shared HTTP client for listing and detail fetches. Per-request
	// timeouts come from contexts; the transport-level limits here guard
	// against connection-level hangs.
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}

	var store cache.Store
	var health api.HealthChecker
	if appCfg.RedisAddr != "" {
		redisStore := cache.NewRedisStore(appCfg.RedisAddr)
		if err := redisStore.Ping(context.Background()); err != nil {
			slog.Warn("Redis unreachable at startup, requests will degrade to no-cache mode",
				"addr", appCfg.RedisAddr, "error", err)
		} else {
			slog.Info("Connected to Redis", "addr", appCfg.RedisAddr)
		}
		defer redisStore.Close()
		store = redisStore
		health = redisStore
	} else {
		slog.Info("No Redis address configured, using in-process cache")
		store = cache.NewMemoryStore()
	}

	listingFetcher := scraper.New(httpClient, appCfg.BaseURL, appCfg.StudentURL,
		appCfg.FacultyURL, appCfg.UserAgent, time.Duration(appCfg.ListingTimeout)*time.Second)
	detailEnricher := enricher.New(httpClient, appCfg.UserAgent,
		time.Duration(appCfg.DetailTimeout)*time.Second)

	completions := normalizer.NewOpenAIClient(appCfg.OpenAIAPIKey, appCfg.OpenAIModel)
	eventNormalizer := normalizer.New(completions,
		time.Duration(appCfg.NormalizeTimeout)*time.Second)

	eventsPipeline := pipeline.New(listingFetcher, detailEnricher, eventNormalizer,
		store, time.Duration(appCfg.CacheTTLSeconds)*time.Second, appCfg.BatchSize)

	handler := api.NewHandler(eventsPipeline, health, appCfg.Version)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening",
			"port", appCfg.Port,
			"events", "/api/events?audience=<student|faculty>",
			"health", "/health")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
