package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/logging"
	"github.com/cashback-engine/internal/models"
	"github.com/cashback-engine/internal/notify"
	"github.com/cashback-engine/internal/queue"
	"github.com/cashback-engine/internal/types"
)

func testQueueConfig() *config.QueueConfig {
	return &config.QueueConfig{
		MaxRetries: 3,
		RetryDelay: 20 * time.Millisecond,
		PopTimeout: 100 * time.Millisecond,
	}
}

func setupWorkerTest(t *testing.T) (*queue.Queue, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return queue.New(client), mr
}

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelFatal, logging.FormatText)
}

// runWorker starts the worker loop and keeps miniredis' clock moving so
// BLPOP timeouts fire. The returned stop function cancels the loop and
// waits for it to exit.
func runWorker(t *testing.T, w *Worker, mr *miniredis.Miniredis) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Run(ctx))
	}()

	tickerDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-tickerDone:
				return
			case <-ticker.C:
				mr.FastForward(200 * time.Millisecond)
			}
		}
	}()

	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("worker did not stop")
		}
		close(tickerDone)
	}
}

func TestWorkerProcessesJob(t *testing.T) {
	q, mr := setupWorkerTest(t)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []string
	handler := func(ctx context.Context, job *models.Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.ID)
		return nil
	}

	job, err := models.NewJob("cashback_confirmed", map[string]string{"to": "user@example.com"})
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, types.QueueEmail, job))

	w := New(types.QueueEmail, q, handler, testQueueConfig(), testLogger())
	stop := runWorker(t, w, mr)
	defer stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1 && seen[0] == job.ID
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		stats, err := q.Stats(ctx, types.QueueEmail)
		return err == nil && stats.Pending == 0 && stats.Processing == 0 && stats.DeadLetter == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWorkerRetriesThenSucceeds(t *testing.T) {
	q, mr := setupWorkerTest(t)
	ctx := context.Background()

	var mu sync.Mutex
	attempts := 0
	handler := func(ctx context.Context, job *models.Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			return errors.New("transient failure")
		}
		return nil
	}

	job, err := models.NewJob("cashback_confirmed", nil)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, types.QueueEmail, job))

	w := New(types.QueueEmail, q, handler, testQueueConfig(), testLogger())
	stop := runWorker(t, w, mr)
	defer stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		stats, err := q.Stats(ctx, types.QueueEmail)
		return err == nil && stats.Pending == 0 && stats.Processing == 0 && stats.DeadLetter == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWorkerDeadLettersAfterMaxRetries(t *testing.T) {
	q, mr := setupWorkerTest(t)
	ctx := context.Background()

	handler := func(ctx context.Context, job *models.Job) error {
		return errors.New("permanent failure")
	}

	job, err := models.NewJob("cashback_confirmed", nil)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, types.QueueEmail, job))

	w := New(types.QueueEmail, q, handler, testQueueConfig(), testLogger())
	stop := runWorker(t, w, mr)
	defer stop()

	require.Eventually(t, func() bool {
		stats, err := q.Stats(ctx, types.QueueEmail)
		return err == nil && stats.DeadLetter == 1 && stats.Pending == 0 && stats.Processing == 0
	}, 10*time.Second, 10*time.Millisecond)

	jobs, err := q.DeadLetterJobs(ctx, types.QueueEmail)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, job.ID, jobs[0].ID)
	assert.Equal(t, 3, jobs[0].Attempts)
	assert.Equal(t, "permanent failure", jobs[0].Error)
	require.NotNil(t, jobs[0].FailedAt)
}

func TestWorkerRecoversOrphanedJobsOnStartup(t *testing.T) {
	q, mr := setupWorkerTest(t)
	ctx := context.Background()

	// Simulate a previous process that died mid-handling
	job, err := models.NewJob("cashback_confirmed", nil)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, types.QueueEmail, job))
	_, raw, err := q.Dequeue(ctx, types.QueueEmail, time.Second)
	require.NoError(t, err)
	require.NoError(t, q.MarkProcessing(ctx, types.QueueEmail, raw))

	var mu sync.Mutex
	var processed bool
	handler := func(ctx context.Context, job *models.Job) error {
		mu.Lock()
		defer mu.Unlock()
		processed = true
		return nil
	}

	w := New(types.QueueEmail, q, handler, testQueueConfig(), testLogger())
	stop := runWorker(t, w, mr)
	defer stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return processed
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWorkerShutdownFlushesPendingRetries(t *testing.T) {
	q, mr := setupWorkerTest(t)
	ctx := context.Background()

	var mu sync.Mutex
	calls := 0
	handler := func(ctx context.Context, job *models.Job) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("failing")
	}

	job, err := models.NewJob("cashback_confirmed", nil)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, types.QueueEmail, job))

	w := New(types.QueueEmail, q, handler, testQueueConfig(), testLogger())
	stop := runWorker(t, w, mr)

	// Wait for the first failure, then stop before the retry timer fires
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 1
	}, 5*time.Second, 10*time.Millisecond)
	stop()

	// The retry must have been flushed back to Redis, not dropped
	stats, err := q.Stats(ctx, types.QueueEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Processing)
	assert.Equal(t, stats.Pending+stats.DeadLetter, int64(1))
}

func TestEmailHandlerDecodesPayload(t *testing.T) {
	var got *notify.EmailMessage
	sender := emailSenderFunc(func(ctx context.Context, msg *notify.EmailMessage) error {
		got = msg
		return nil
	})

	job, err := models.NewJob("cashback_confirmed", notify.EmailMessage{
		To:   "user@example.com",
		Data: map[string]interface{}{"amount": 45.0},
	})
	require.NoError(t, err)

	require.NoError(t, EmailHandler(sender)(context.Background(), job))
	require.NotNil(t, got)
	assert.Equal(t, "user@example.com", got.To)
	// Payload without its own type inherits the job type
	assert.Equal(t, "cashback_confirmed", got.Type)
	assert.Equal(t, 45.0, got.Data["amount"])
}

func TestEmailHandlerRejectsGarbage(t *testing.T) {
	sender := emailSenderFunc(func(ctx context.Context, msg *notify.EmailMessage) error { return nil })

	job := &models.Job{ID: "x", Type: "welcome", Payload: []byte("{not json")}
	require.Error(t, EmailHandler(sender)(context.Background(), job))
}

func TestSMSHandlerDecodesPayload(t *testing.T) {
	var got *notify.SMSMessage
	sender := smsSenderFunc(func(ctx context.Context, msg *notify.SMSMessage) error {
		got = msg
		return nil
	})

	job, err := models.NewJob("cashback_credited", notify.SMSMessage{Mobile: "+919876543210"})
	require.NoError(t, err)

	require.NoError(t, SMSHandler(sender)(context.Background(), job))
	require.NotNil(t, got)
	assert.Equal(t, "+919876543210", got.Mobile)
	assert.Equal(t, "cashback_credited", got.Type)
}

type emailSenderFunc func(ctx context.Context, msg *notify.EmailMessage) error

func (f emailSenderFunc) SendEmail(ctx context.Context, msg *notify.EmailMessage) error {
	return f(ctx, msg)
}

type smsSenderFunc func(ctx context.Context, msg *notify.SMSMessage) error

func (f smsSenderFunc) SendSMS(ctx context.Context, msg *notify.SMSMessage) error {
	return f(ctx, msg)
}
