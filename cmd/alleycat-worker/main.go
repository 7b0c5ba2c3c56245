package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

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

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("ALLEYCAT_WORKER_RUN_ONCE")), "true")
	if runOnce {
		if err := sweep(ctx, ledger, logger); err != nil {
			logger.Error("sweep failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	ticker := time.NewTicker(cfg.SweepEvery)
	defer ticker.Stop()

	logger.Info("worker started", "sweep_every", cfg.SweepEvery.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			if err := sweep(ctx, ledger, logger); err != nil {
				logger.Error("sweep failed", "err", err)
				continue
			}
		}
	}
}

// sweep logs an asset snapshot and any accounting violations for every
// known guild. It never mutates ledgers.
func sweep(ctx context.Context, ledger *economy.Service, logger *slog.Logger) error {
	guilds, err := ledger.Guilds(ctx)
	if err != nil {
		return err
	}
	for _, guildID := range guilds {
		report, err := ledger.ReportAsset(ctx, guildID)
		if err != nil {
			logger.Error("asset report failed", "guild_id", guildID, "err", err)
			continue
		}
		logger.Info("asset snapshot",
			"guild_id", guildID,
			"reserve", report.Reserve,
			"circulating", report.Circulating,
			"market_value", report.MarketValue,
			"trade_fees", report.TradeFees,
			"total", report.Total,
		)
		violations, err := ledger.AuditGuild(ctx, guildID)
		if err != nil {
			logger.Error("audit failed", "guild_id", guildID, "err", err)
			continue
		}
		for _, v := range violations {
			logger.Error("accounting violation", "guild_id", guildID, "violation", v)
		}
	}
	logger.Info("sweep complete", "guilds", len(guilds))
	return nil
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
