// Package main provides the notification worker entry point. One process
// runs the email and SMS delivery loops side by side.
package main

import (
	"context"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"

	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/logging"
	"github.com/cashback-engine/internal/notify"
	"github.com/cashback-engine/internal/queue"
	"github.com/cashback-engine/internal/storage"
	"github.com/cashback-engine/internal/types"
	"github.com/cashback-engine/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("failed to load configuration")
	}
	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger().WithField("service", "notifier")

	redisStore, err := storage.NewRedisStore(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer redisStore.Close()

	q := queue.New(redisStore.Client())
	emailSender := notify.NewSendGridSender(&cfg.Notify, logger)
	smsSender := notify.NewMSG91Sender(&cfg.Notify, logger)

	workers := []*worker.Worker{
		worker.New(types.QueueEmail, q, worker.EmailHandler(emailSender), &cfg.Queue, logger),
		worker.New(types.QueueSMS, q, worker.SMSHandler(smsSender), &cfg.Queue, logger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received, stopping workers")
		cancel()
	}()

	var wg gosync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *worker.Worker) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				logger.WithError(err).Error("worker stopped with error")
			}
		}(w)
	}

	wg.Wait()
	logger.Info("all workers stopped")
}
