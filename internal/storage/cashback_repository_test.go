package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashback-engine/internal/types"
)

func TestCashbackRepositoryRoundTrip(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	eventID, userID := seedCashbackEvent(t, db, 15)
	repo := NewCashbackRepository(db)

	event, err := repo.Get(ctx, eventID)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, userID, event.UserID)
	assert.Equal(t, types.StatusApproved, event.Status)
	assert.Nil(t, event.PaidAt)

	byTx, err := repo.GetByNetworkTransaction(ctx, event.Network, event.AffiliateTransactionID)
	require.NoError(t, err)
	require.NotNil(t, byTx)
	assert.Equal(t, eventID, byTx.ID)

	listed, err := repo.ListByUser(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestCashbackRepositoryGetByNetworkTransactionMissing(t *testing.T) {
	db := setupPostgres(t)

	repo := NewCashbackRepository(db)
	event, err := repo.GetByNetworkTransaction(context.Background(), types.NetworkAdmitad, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestCashbackRepositoryUpdateStatus(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	eventID, _ := seedCashbackEvent(t, db, 15)
	repo := NewCashbackRepository(db)

	require.NoError(t, repo.UpdateStatus(ctx, eventID, types.StatusRejected))

	event, err := repo.Get(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusRejected, event.Status)

	// Unknown id is an error, not a silent no-op
	require.Error(t, repo.UpdateStatus(ctx, 99999999, types.StatusApproved))
}

func TestClickRepositoryGetMissing(t *testing.T) {
	db := setupPostgres(t)

	repo := NewClickRepository(db)
	click, err := repo.GetByClickID(context.Background(), "never-issued")
	require.NoError(t, err)
	assert.Nil(t, click)
}
