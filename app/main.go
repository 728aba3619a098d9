package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FaiMartinez/reddit-deduplication-system/app/api"
	"github.com/FaiMartinez/reddit-deduplication-system/app/cfg"
	"github.com/FaiMartinez/reddit-deduplication-system/app/imaging"
	"github.com/FaiMartinez/reddit-deduplication-system/app/reddit"
	"github.com/FaiMartinez/reddit-deduplication-system/app/scan"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully.
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting reddit image deduplication server", "version", appCfg.Version)

	// Authentication failure here is fatal: the service cannot scan feeds
	// without API access.
	client, err := reddit.NewClient(context.Background(), reddit.Config{
		ClientID:     appCfg.RedditClientID,
		ClientSecret: appCfg.RedditClientSecret,
		UserAgent:    appCfg.UserAgent,
	})
	if err != nil {
		slog.Error("Reddit authentication failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Authenticated with Reddit", "user_agent", appCfg.UserAgent)

	fetcher := &imaging.Fetcher{
		UserAgent: appCfg.UserAgent,
		Timeout:   time.Duration(appCfg.FetchTimeout) * time.Second,
	}
	scanner := &scan.Scanner{
		Feeds:     client,
		Fetcher:   fetcher,
		HashSize:  appCfg.HashSize,
		Threshold: appCfg.MatchThreshold,
		PostLimit: appCfg.PostLimit,
		Workers:   appCfg.ScanWorkers,
	}

	handler := api.NewHandler(scanner, client, fetcher, appCfg.HashSize)
	router := api.NewServer(handler, appCfg.Version)

	httpServer := &http.Server{
		Addr:        ":" + appCfg.Port,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// A scan blocks on up to feeds x posts image downloads, so the
		// response can take minutes.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}
