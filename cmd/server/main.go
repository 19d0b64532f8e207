// Command server exposes the dataset detection and repair pipeline over
// HTTP: POST /detect scans a submitted dataset for issues, POST /apply
// applies a chosen subset of them. It is a thin transport shim around the
// same orchestrator and applier used by cmd/dqrepair.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dqrepair/pipeline/internal/config"
	httprouter "github.com/dqrepair/pipeline/internal/http"
	"github.com/dqrepair/pipeline/internal/ledger"
	"github.com/dqrepair/pipeline/internal/llm"
)

func main() {
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg := config.LoadConfig()
	if err := config.ValidateServerConfig(cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	var gw llm.Completer
	if cfg.LLMEnabled {
		gateway, err := llm.New(ctx, llm.Config{
			Provider:                       cfg.LLMProvider,
			APIKey:                         cfg.LLMAPIKey,
			PrimaryModel:                   cfg.LLMPrimaryModel,
			RequestTimeout:                 cfg.LLMRequestTimeout,
			MaxQuotaExhaustedBeforeCascade: cfg.LLMMaxQuotaExhaustedCascade,
			FallbackModels:                 cfg.LLMFallbackModels,
			MaxOutputTokens:                cfg.LLMMaxOutputTokens,
		}, logger)
		if err != nil {
			slog.Error("constructing LLM gateway", "error", err)
			os.Exit(1)
		}
		gw = gateway
	}

	led, err := ledger.Open(cfg.LedgerPath, logger)
	if err != nil {
		slog.Error("opening run ledger", "error", err)
		os.Exit(1)
	}

	router, cleanup := httprouter.SetupRouterWithCleanup(cfg, gw, led, logger)
	defer cleanup()

	server := &http.Server{
		Addr:           cfg.ServerAddr,
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", cfg.ServerAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("server shutdown complete")
}
