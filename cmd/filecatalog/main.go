package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/syntrixbase/filecatalog/internal/config"
	"github.com/syntrixbase/filecatalog/internal/logging"
	"github.com/syntrixbase/filecatalog/internal/services"
)

func main() {
	// 0. Parse Command Line Flags
	configDir := flag.String("config-dir", "configs", "Directory holding config.yml and config.local.yml")
	noSync := flag.Bool("no-sync", false, "Disable background reconciliation with the remote store")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Shutdown()

	slog.Info("Starting file catalog...",
		"index", cfg.Index.Type,
		"remote", cfg.Remote.Type,
		"events", cfg.Events.Enabled,
		"sync", !*noSync)

	// 2. Initialize Service Manager
	mgr := services.NewManager(cfg, services.Options{NoSync: *noSync}, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := mgr.Init(ctx); err != nil {
		slog.Error("Failed to initialize services", "error", err)
		logging.Shutdown()
		os.Exit(1)
	}

	// 3. Start Services
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if err := mgr.Start(bgCtx); err != nil {
		slog.Error("Failed to start services", "error", err)
		logging.Shutdown()
		os.Exit(1)
	}

	// 4. Wait for Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("Shutting down services...", "signal", sig.String())
	case err := <-mgr.Failed():
		slog.Error("Shutting down after server failure", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Cancel background tasks first
	bgCancel()

	mgr.Shutdown(shutdownCtx)

	slog.Info("All services stopped.")
}
