// Package worker runs the notification delivery loop for one durable queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/logging"
	"github.com/cashback-engine/internal/metrics"
	"github.com/cashback-engine/internal/models"
	"github.com/cashback-engine/internal/queue"
	"github.com/cashback-engine/internal/types"
)

// Handler processes one decoded job. A nil return resolves the job; an
// error triggers the retry policy.
type Handler func(ctx context.Context, job *models.Job) error

// Worker consumes one queue: it recovers orphaned jobs on startup, then
// pops, dispatches and resolves jobs until its context is cancelled. Failed
// jobs are re-enqueued after a fixed delay until the attempt budget runs
// out, then dead-lettered.
type Worker struct {
	name       types.QueueName
	queue      *queue.Queue
	handler    Handler
	maxRetries int
	retryDelay time.Duration
	popTimeout time.Duration
	logger     *logging.Logger

	// retries tracks in-flight delayed re-enqueues so shutdown does not
	// drop them
	retries sync.WaitGroup
}

func New(name types.QueueName, q *queue.Queue, handler Handler, cfg *config.QueueConfig, logger *logging.Logger) *Worker {
	return &Worker{
		name:       name,
		queue:      q,
		handler:    handler,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		popTimeout: cfg.PopTimeout,
		logger:     logger.WithField("queue", string(name)),
	}
}

// Run blocks until ctx is cancelled. It returns only after every pending
// delayed re-enqueue has been flushed back to Redis.
func (w *Worker) Run(ctx context.Context) error {
	recovered, err := w.queue.RecoverProcessing(ctx, w.name)
	if err != nil {
		return fmt.Errorf("failed to recover in-flight jobs: %w", err)
	}
	if recovered > 0 {
		metrics.JobsRecovered.WithLabelValues(string(w.name)).Add(float64(recovered))
		w.logger.WithField("count", recovered).Warn("recovered orphaned in-flight jobs")
	}

	w.logger.Info("worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping, waiting for pending retries")
			w.retries.Wait()
			return nil
		default:
		}

		job, raw, err := w.queue.Dequeue(ctx, w.name, w.popTimeout)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.WithError(err).Error("dequeue failed")
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		w.processJob(ctx, job, raw)
	}
}

func (w *Worker) processJob(ctx context.Context, job *models.Job, raw string) {
	logger := w.logger.WithFields(map[string]interface{}{
		"job_id":   job.ID,
		"job_type": job.Type,
	})

	if err := w.queue.MarkProcessing(ctx, w.name, raw); err != nil {
		logger.WithError(err).Error("failed to mark job processing")
		return
	}

	job.Attempts++
	err := w.handler(ctx, job)
	if err == nil {
		if ackErr := w.queue.Ack(ctx, w.name, raw); ackErr != nil {
			logger.WithError(ackErr).Error("failed to ack job")
		}
		metrics.JobsProcessed.WithLabelValues(string(w.name), "success").Inc()
		logger.Info("job processed")
		return
	}

	logger.WithError(err).WithField("attempts", job.Attempts).Warn("job failed")
	metrics.JobsProcessed.WithLabelValues(string(w.name), "failure").Inc()

	if job.Attempts < w.maxRetries {
		if ackErr := w.queue.Ack(ctx, w.name, raw); ackErr != nil {
			logger.WithError(ackErr).Error("failed to ack job before retry")
		}
		w.scheduleRetry(job)
		return
	}

	if dlqErr := w.queue.MoveToDeadLetter(ctx, w.name, job, raw, err); dlqErr != nil {
		logger.WithError(dlqErr).Error("failed to dead-letter job")
		return
	}
	metrics.JobsDeadLettered.WithLabelValues(string(w.name)).Inc()
	logger.WithField("attempts", job.Attempts).Error("job moved to dead-letter queue")
}

// scheduleRetry re-enqueues the job after the retry delay. The enqueue uses
// a background context because the worker's context may already be
// cancelled by the time the timer fires.
func (w *Worker) scheduleRetry(job *models.Job) {
	metrics.JobsRetried.WithLabelValues(string(w.name)).Inc()
	w.retries.Add(1)
	time.AfterFunc(w.retryDelay, func() {
		defer w.retries.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := w.queue.Enqueue(ctx, w.name, job); err != nil {
			w.logger.WithError(err).WithField("job_id", job.ID).Error("failed to re-enqueue job for retry")
		}
	})
}
