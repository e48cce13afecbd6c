package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashback-engine/internal/adapter"
	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/ledger"
	"github.com/cashback-engine/internal/logging"
	"github.com/cashback-engine/internal/models"
	"github.com/cashback-engine/internal/storage"
	"github.com/cashback-engine/internal/types"
)

type stubAdapter struct {
	network types.Network
	txs     []adapter.Transaction
	err     error
	calls   atomic.Int32
}

func (a *stubAdapter) Name() types.Network { return a.network }

func (a *stubAdapter) FetchTransactions(ctx context.Context, windowDays, limit int) ([]adapter.Transaction, error) {
	a.calls.Add(1)
	return a.txs, a.err
}

type stubClickStore struct {
	clicks map[string]*models.Click
}

func (s *stubClickStore) GetByClickID(ctx context.Context, clickID string) (*models.Click, error) {
	return s.clicks[clickID], nil
}

type stubCashbackStore struct {
	nextID int64
	events map[string]*models.CashbackEvent
	failOn string
}

func (s *stubCashbackStore) GetByNetworkTransaction(ctx context.Context, network types.Network, externalID string) (*models.CashbackEvent, error) {
	return s.events[externalID], nil
}

func (s *stubCashbackStore) Insert(ctx context.Context, event *models.CashbackEvent) error {
	if event.AffiliateTransactionID == s.failOn {
		return errors.New("insert failed")
	}
	s.nextID++
	event.ID = s.nextID
	s.events[event.AffiliateTransactionID] = event
	return nil
}

func (s *stubCashbackStore) UpdateStatus(ctx context.Context, id int64, status types.CashbackStatus) error {
	for _, e := range s.events {
		if e.ID == id {
			e.Status = status
			return nil
		}
	}
	return errors.New("not found")
}

type stubWalletStore struct {
	credits int
}

func (s *stubWalletStore) CreditCashback(ctx context.Context, id int64) (*storage.CreditResult, error) {
	s.credits++
	return &storage.CreditResult{Credited: true}, nil
}

type stubEnqueuer struct{}

func (stubEnqueuer) Enqueue(ctx context.Context, name types.QueueName, job *models.Job) error {
	return nil
}

type stubRecorder struct {
	runs []*models.SyncRun
	err  error
}

func (r *stubRecorder) Insert(ctx context.Context, run *models.SyncRun) error {
	if r.err != nil {
		return r.err
	}
	r.runs = append(r.runs, run)
	return nil
}

type syncFixture struct {
	redis    *redis.Client
	mr       *miniredis.Miniredis
	recorder *stubRecorder
	wallet   *stubWalletStore
	events   *stubCashbackStore
}

func newSynchronizer(t *testing.T, adapters []adapter.NetworkAdapter) (*Synchronizer, *syncFixture) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	clicks := &stubClickStore{clicks: map[string]*models.Click{
		"click-1": {ClickID: "click-1", UserID: 10, OfferID: 20, MerchantID: 30},
	}}
	events := &stubCashbackStore{events: map[string]*models.CashbackEvent{}}
	wallet := &stubWalletStore{}
	logger := logging.NewLogger(logging.LevelFatal, logging.FormatText)

	updater := ledger.NewUpdater(clicks, events, wallet, stubEnqueuer{}, &config.RatesConfig{Commission: 0.05, Cashback: 0.03}, logger)
	recorder := &stubRecorder{}
	cfg := &config.SyncConfig{
		Interval:   time.Hour,
		WindowDays: 7,
		LockTTL:    time.Hour,
		PageLimit:  200,
	}

	s := NewSynchronizer(adapters, updater, recorder, client, cfg, logger)
	return s, &syncFixture{redis: client, mr: mr, recorder: recorder, wallet: wallet, events: events}
}

func tx(id string, status types.CashbackStatus) adapter.Transaction {
	return adapter.Transaction{
		Network:    types.NetworkAdmitad,
		ExternalID: id,
		SubID:      "click-1",
		Amount:     100,
		Status:     status,
	}
}

func TestRunOnceProcessesAllNetworks(t *testing.T) {
	admitad := &stubAdapter{network: types.NetworkAdmitad, txs: []adapter.Transaction{
		tx("tx-1", types.StatusPending),
		tx("tx-2", types.StatusApproved),
	}}
	vcommission := &stubAdapter{network: types.NetworkVCommission}

	s, f := newSynchronizer(t, []adapter.NetworkAdapter{admitad, vcommission})
	require.NoError(t, s.RunOnce(context.Background()))

	assert.Equal(t, int32(1), admitad.calls.Load())
	assert.Equal(t, int32(1), vcommission.calls.Load())
	assert.Equal(t, 1, f.wallet.credits)

	require.Len(t, f.recorder.runs, 2)
	first := f.recorder.runs[0]
	assert.Equal(t, types.NetworkAdmitad, first.Network)
	assert.Equal(t, uint64(2), first.Fetched)
	assert.Equal(t, uint64(2), first.Imported)
	assert.Equal(t, uint64(1), first.Credited)
	assert.Equal(t, uint64(0), first.Errors)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	a := &stubAdapter{network: types.NetworkAdmitad}
	s, f := newSynchronizer(t, []adapter.NetworkAdapter{a})

	require.NoError(t, f.redis.Set(context.Background(), syncLockKey, "other-process", time.Hour).Err())

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, int32(0), a.calls.Load())
	assert.Empty(t, f.recorder.runs)
}

func TestRunOnceReleasesLock(t *testing.T) {
	a := &stubAdapter{network: types.NetworkAdmitad}
	s, f := newSynchronizer(t, []adapter.NetworkAdapter{a})

	require.NoError(t, s.RunOnce(context.Background()))
	assert.False(t, f.mr.Exists(syncLockKey))

	// A second cycle can acquire the lock again
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, int32(2), a.calls.Load())
}

func TestSyncNetworkIsolatesTransactionFailures(t *testing.T) {
	a := &stubAdapter{network: types.NetworkAdmitad, txs: []adapter.Transaction{
		tx("tx-bad", types.StatusPending),
		tx("tx-good", types.StatusPending),
	}}
	s, f := newSynchronizer(t, []adapter.NetworkAdapter{a})
	f.events.failOn = "tx-bad"

	require.NoError(t, s.RunOnce(context.Background()))

	require.Len(t, f.recorder.runs, 1)
	run := f.recorder.runs[0]
	assert.Equal(t, uint64(1), run.Errors)
	assert.Equal(t, uint64(1), run.Imported)
	assert.NotNil(t, f.events.events["tx-good"])
}

func TestSyncNetworkFetchErrorRecorded(t *testing.T) {
	bad := &stubAdapter{network: types.NetworkAdmitad, err: errors.New("network unreachable")}
	good := &stubAdapter{network: types.NetworkVCommission, txs: []adapter.Transaction{
		tx("tx-1", types.StatusPending),
	}}
	s, f := newSynchronizer(t, []adapter.NetworkAdapter{bad, good})

	require.NoError(t, s.RunOnce(context.Background()))

	// The failing network does not stop the others
	assert.Equal(t, int32(1), good.calls.Load())
	require.Len(t, f.recorder.runs, 2)
	assert.Equal(t, uint64(1), f.recorder.runs[0].Errors)
	assert.Equal(t, uint64(1), f.recorder.runs[1].Imported)
}

func TestRecorderFailureDoesNotFailCycle(t *testing.T) {
	a := &stubAdapter{network: types.NetworkAdmitad, txs: []adapter.Transaction{
		tx("tx-1", types.StatusPending),
	}}
	s, f := newSynchronizer(t, []adapter.NetworkAdapter{a})
	f.recorder.err = errors.New("clickhouse down")

	require.NoError(t, s.RunOnce(context.Background()))
	assert.NotNil(t, f.events.events["tx-1"])
}

func TestRunStopsOnContextCancel(t *testing.T) {
	a := &stubAdapter{network: types.NetworkAdmitad}
	s, _ := newSynchronizer(t, []adapter.NetworkAdapter{a})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, s.Run(ctx))
	}()

	// The first cycle runs immediately; cancellation ends the wait
	require.Eventually(t, func() bool { return a.calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("synchronizer did not stop")
	}
}
