// Package main provides the reconciliation synchronizer entry point.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/cashback-engine/internal/adapter"
	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/ledger"
	"github.com/cashback-engine/internal/logging"
	"github.com/cashback-engine/internal/queue"
	"github.com/cashback-engine/internal/storage"
	"github.com/cashback-engine/internal/sync"
)

func main() {
	var (
		once = flag.Bool("once", false, "Run a single reconciliation cycle and exit")
		days = flag.Int("days", 0, "Override the lookback window in days")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("failed to load configuration")
	}
	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger().WithField("service", "syncer")

	if *days > 0 {
		cfg.Sync.WindowDays = *days
	}

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Postgres")
	}
	defer postgres.Close()

	redisStore, err := storage.NewRedisStore(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer redisStore.Close()

	// ClickHouse reporting is optional: the synchronizer runs without it
	var runs sync.RunRecorder
	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Warn("ClickHouse unavailable, sync runs will not be recorded")
	} else {
		defer clickhouse.Close()
		runs = storage.NewSyncRunRepository(clickhouse)
	}

	clicks := storage.NewClickRepository(postgres)
	events := storage.NewCashbackRepository(postgres)
	wallet := storage.NewWalletRepository(postgres)
	jobs := queue.New(redisStore.Client())

	updater := ledger.NewUpdater(clicks, events, wallet, jobs, &cfg.Rates, logger)

	adapters := []adapter.NetworkAdapter{
		adapter.NewAdmitadAdapter(&cfg.Networks, logger),
		adapter.NewVCommissionAdapter(&cfg.Networks, logger),
		adapter.NewCueLinksAdapter(&cfg.Networks, logger),
	}

	synchronizer := sync.NewSynchronizer(adapters, updater, runs, redisStore.Client(), &cfg.Sync, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	if *once {
		if err := synchronizer.RunOnce(ctx); err != nil {
			logger.WithError(err).Fatal("reconciliation cycle failed")
		}
		return
	}

	if err := synchronizer.Run(ctx); err != nil {
		logger.WithError(err).Fatal("synchronizer stopped with error")
	}
	logger.Info("synchronizer stopped")
}
