// Package sync runs the periodic reconciliation cycle: fetch recent
// transactions from every affiliate network and apply them to the ledger.
package sync

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cashback-engine/internal/adapter"
	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/ledger"
	"github.com/cashback-engine/internal/logging"
	"github.com/cashback-engine/internal/metrics"
	"github.com/cashback-engine/internal/models"
)

// syncLockKey guards against overlapping cycles across processes
const syncLockKey = "cashback:sync:lock"

// RunRecorder persists per-network sync audit records
type RunRecorder interface {
	Insert(ctx context.Context, run *models.SyncRun) error
}

// Synchronizer drives reconciliation cycles. A Redis lock ensures only one
// process runs a cycle at a time; a failure in one network or one
// transaction never stops the rest of the cycle.
type Synchronizer struct {
	adapters []adapter.NetworkAdapter
	updater  *ledger.Updater
	runs     RunRecorder
	redis    *redis.Client
	cfg      *config.SyncConfig
	logger   *logging.Logger
}

func NewSynchronizer(adapters []adapter.NetworkAdapter, updater *ledger.Updater, runs RunRecorder, redisClient *redis.Client, cfg *config.SyncConfig, logger *logging.Logger) *Synchronizer {
	return &Synchronizer{
		adapters: adapters,
		updater:  updater,
		runs:     runs,
		redis:    redisClient,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes cycles on the configured interval until ctx is cancelled
func (s *Synchronizer) Run(ctx context.Context) error {
	for {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.WithError(err).Error("sync cycle failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.Interval):
		}
	}
}

// RunOnce executes a single reconciliation cycle. When another process
// holds the sync lock the cycle is skipped, not queued.
func (s *Synchronizer) RunOnce(ctx context.Context) error {
	acquired, err := s.redis.SetNX(ctx, syncLockKey, time.Now().UTC().Format(time.RFC3339), s.cfg.LockTTL).Result()
	if err != nil {
		return err
	}
	if !acquired {
		s.logger.Info("sync lock held by another process, skipping cycle")
		return nil
	}
	defer func() {
		if err := s.redis.Del(context.WithoutCancel(ctx), syncLockKey).Err(); err != nil {
			s.logger.WithError(err).Warn("failed to release sync lock")
		}
	}()

	s.logger.Info("starting reconciliation cycle")
	start := time.Now()
	for _, a := range s.adapters {
		s.syncNetwork(ctx, a)
	}

	elapsed := time.Since(start)
	metrics.SyncCycleDuration.Observe(elapsed.Seconds())
	s.logger.WithField("duration", elapsed.String()).Info("reconciliation cycle finished")
	return nil
}

// syncNetwork fetches and applies one network's transactions. Every
// transaction is processed independently: an error is counted and logged,
// then the loop moves on.
func (s *Synchronizer) syncNetwork(ctx context.Context, a adapter.NetworkAdapter) {
	network := a.Name()
	logger := s.logger.WithField("network", string(network))
	run := &models.SyncRun{
		Network:   network,
		StartedAt: time.Now().UTC(),
	}

	txs, err := a.FetchTransactions(ctx, s.cfg.WindowDays, s.cfg.PageLimit)
	if err != nil {
		logger.WithError(err).Error("fetch failed")
		run.Errors++
		metrics.SyncErrors.WithLabelValues(string(network)).Inc()
		s.recordRun(ctx, run, logger)
		return
	}

	run.Fetched = uint64(len(txs))
	metrics.TransactionsFetched.WithLabelValues(string(network)).Add(float64(len(txs)))

	for _, tx := range txs {
		result, err := s.updater.ProcessTransaction(ctx, tx)
		if err != nil {
			run.Errors++
			metrics.SyncErrors.WithLabelValues(string(network)).Inc()
			logger.WithError(err).WithField("transaction_id", tx.ExternalID).Error("failed to process transaction")
			continue
		}
		switch result.Outcome {
		case ledger.OutcomeImported:
			run.Imported++
		case ledger.OutcomeUpdated:
			run.Updated++
		}
		if result.Credited {
			run.Credited++
		}
	}

	run.DurationMs = uint64(time.Since(run.StartedAt).Milliseconds())
	logger.WithFields(map[string]interface{}{
		"fetched":  run.Fetched,
		"imported": run.Imported,
		"updated":  run.Updated,
		"credited": run.Credited,
		"errors":   run.Errors,
	}).Info("network sync finished")

	s.recordRun(ctx, run, logger)
}

// recordRun writes the audit record. Reporting is best-effort: a ClickHouse
// outage must not fail reconciliation.
func (s *Synchronizer) recordRun(ctx context.Context, run *models.SyncRun, logger *logging.Logger) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Insert(ctx, run); err != nil {
		logger.WithError(err).Warn("failed to record sync run")
	}
}
