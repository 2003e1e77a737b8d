package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/saranya-muthuraj/ivrsim/internal/call"
	"github.com/saranya-muthuraj/ivrsim/internal/config"
	"github.com/saranya-muthuraj/ivrsim/internal/directory"
	"github.com/saranya-muthuraj/ivrsim/internal/httpapi"
	"github.com/saranya-muthuraj/ivrsim/internal/ivr"
	"github.com/saranya-muthuraj/ivrsim/internal/menu"
	"github.com/saranya-muthuraj/ivrsim/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	dir, err := directory.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("directory init failed: %v", err)
	}
	defer dir.Close()

	store, err := call.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("call store init failed: %v", err)
	}
	defer store.Close()

	if cfg.SeedOnStart {
		if err := directory.EnsureSeed(ctx, dir); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
	}

	engine, err := ivr.New(menu.Airline(), store, dir, metrics)
	if err != nil {
		log.Fatalf("menu graph invalid: %v", err)
	}

	api := httpapi.New(cfg, engine, store, dir)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	engine.StartJanitor(runCtx, cfg.JanitorInterval, cfg.CallInactivityTimeout)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
