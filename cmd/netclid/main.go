// Command netclid is the daemon entrypoint: it loads configuration,
// connects to every configured device, and serves the HTTP facade.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orchestron-orchestrator/netcli/api/router"
	"github.com/orchestron-orchestrator/netcli/internal/audit"
	"github.com/orchestron-orchestrator/netcli/internal/client"
	"github.com/orchestron-orchestrator/netcli/internal/config"
	"github.com/orchestron-orchestrator/netcli/internal/database"
	"github.com/orchestron-orchestrator/netcli/internal/statecache"
	"github.com/orchestron-orchestrator/netcli/pkg/logger"
)

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting netclid", "version", "1.0.0", "devices", len(cfg.Devices))

	if err := database.InitSQLite(cfg.Database.SQLite); err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer database.Close()

	cache, err := statecache.New(cfg.Redis)
	if err != nil {
		logger.Fatal("failed to initialize state cache", "error", err)
	}
	defer cache.Close()

	auditSvc := audit.New(database.GetDB(), cfg.Storage.Minio)

	registry := client.NewRegistry(cfg.SSH, auditSvc, cache, cfg.Collector.ReadyTimeout)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), cfg.Collector.ReadyTimeout+10*time.Second)
	if err := registry.ConnectAll(connectCtx, cfg.Devices); err != nil {
		logger.Warn("one or more devices failed to connect at startup", "error", err)
	}
	cancelConnect()

	r := router.SetupRouter(registry)

	server := &http.Server{
		Addr:           cfg.GetServerAddr(),
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.GetServerAddr(), "mode", cfg.Server.Mode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start http server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("netclid shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server forced to shutdown", "error", err)
	}

	registry.DisconnectAll(shutdownCtx)
	logger.Info("netclid shutdown complete")
}
