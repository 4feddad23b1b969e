package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	h "genserve/internal/api/http"
	cfgpkg "genserve/internal/config"
	"genserve/internal/fetch"
	"genserve/internal/offload"
	"genserve/internal/orchestrator"
	"genserve/internal/sched"
	"genserve/internal/textgen"
)

func main() {

	_ = godotenv.Load()

	cfg, err := cfgpkg.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	cfgpkg.SetupLogger(cfg)
	slog.Info("configuration loaded successfully", "environment", cfg.Environment)

	scheduler := sched.New(sched.Config{
		Carriers: cfg.Carriers,
		Logger:   slog.Default(),
	})

	pool := offload.NewPool(scheduler, offload.Config{
		Workers:       cfg.PoolWorkers,
		QueueCapacity: cfg.QueueCapacity,
		Logger:        slog.Default(),
	})
	pool.Start()

	transport := fetch.NewHTTPTransport(cfg.FetchItemTimeout, cfg.MaxFetchBody)
	aggregator := fetch.NewAggregator(scheduler, transport, slog.Default())

	generator := &textgen.Local{MaxTokens: cfg.MaxTokens}

	orch := orchestrator.New(scheduler, aggregator, pool, generator, orchestrator.Config{
		FetchTimeout:     cfg.FetchTimeout,
		FetchItemTimeout: cfg.FetchItemTimeout,
		ComputeTimeout:   cfg.ComputeTimeout,
		MaxURLsPerPrompt: cfg.MaxURLsPerPrompt,
	}, slog.Default())

	router := h.NewRouter(orch, slog.Default())
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  cfg.HTTPTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	if err := pool.Shutdown(shutdownCtx); err != nil {
		slog.Error("offload pool shutdown failed", "error", err)
	}

	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		slog.Error("scheduler shutdown failed", "error", err)
	} else {
		slog.Info("server stopped gracefully")
	}
}
