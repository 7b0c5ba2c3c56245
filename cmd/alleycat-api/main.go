package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"alleycat/internal/api"
	"alleycat/internal/config"
	"alleycat/internal/db"
	"alleycat/internal/economy"
	"alleycat/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	tuning := economy.DefaultTuning()
	if cfg.TuningPath != "" {
		tuning, err = economy.LoadTuning(cfg.TuningPath)
		if err != nil {
			logger.Error("load tuning failed", "path", cfg.TuningPath, "err", err)
			os.Exit(1)
		}
	}

	ledgerStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer ledgerStore.Close()

	ledger := economy.NewService(ledgerStore, tuning, logger)
	ledger.SetStorageTimeout(cfg.StorageTimeout)

	server := api.New(cfg, logger, ledger)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("alleycat api listening", "addr", cfg.Addr, "store", cfg.StoreDriver)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.APIConfig, logger *slog.Logger) (economy.Store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return store.NewSQLiteStore(filepath.Join(cfg.DataDir, "alleycat.db"), logger)
	case "postgres":
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store.NewPostgresStore(ctx, pool, logger)
	default:
		return store.NewFileStore(cfg.DataDir, logger)
	}
}
