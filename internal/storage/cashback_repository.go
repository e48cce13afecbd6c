package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/cashback-engine/internal/models"
	"github.com/cashback-engine/internal/types"
	"github.com/jackc/pgx/v5"
)

// CashbackRepository handles cashback event persistence
type CashbackRepository struct {
	db *PostgresDB
}

// NewCashbackRepository creates a new cashback event repository
func NewCashbackRepository(db *PostgresDB) *CashbackRepository {
	return &CashbackRepository{db: db}
}

const cashbackEventColumns = `
	id, user_id, offer_id, merchant_id, click_id,
	transaction_amount, commission_amount, cashback_amount,
	status, affiliate_transaction_id, network, merchant_name,
	paid_at, created_at, updated_at
`

func scanCashbackEvent(row pgx.Row) (*models.CashbackEvent, error) {
	var event models.CashbackEvent
	err := row.Scan(
		&event.ID,
		&event.UserID,
		&event.OfferID,
		&event.MerchantID,
		&event.ClickID,
		&event.TransactionAmount,
		&event.CommissionAmount,
		&event.CashbackAmount,
		&event.Status,
		&event.AffiliateTransactionID,
		&event.Network,
		&event.MerchantName,
		&event.PaidAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetByNetworkTransaction retrieves the event for a (network, external
// transaction id) pair. Returns (nil, nil) when no event exists yet.
func (r *CashbackRepository) GetByNetworkTransaction(ctx context.Context, network types.Network, externalID string) (*models.CashbackEvent, error) {
	query := `SELECT ` + cashbackEventColumns + `
		FROM cashback_events
		WHERE network = $1 AND affiliate_transaction_id = $2
	`

	event, err := scanCashbackEvent(r.db.Pool().QueryRow(ctx, query, network, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cashback event %s/%s: %w", network, externalID, err)
	}
	return event, nil
}

// Get retrieves a cashback event by id. Returns (nil, nil) when not found.
func (r *CashbackRepository) Get(ctx context.Context, id int64) (*models.CashbackEvent, error) {
	query := `SELECT ` + cashbackEventColumns + ` FROM cashback_events WHERE id = $1`

	event, err := scanCashbackEvent(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cashback event %d: %w", id, err)
	}
	return event, nil
}

// Insert creates a new cashback event and fills in its generated fields.
// The unique index on (network, affiliate_transaction_id) backs the
// lookup-before-insert protocol in the ledger updater.
func (r *CashbackRepository) Insert(ctx context.Context, event *models.CashbackEvent) error {
	query := `
		INSERT INTO cashback_events (
			user_id, offer_id, merchant_id, click_id,
			transaction_amount, commission_amount, cashback_amount,
			status, affiliate_transaction_id, network, merchant_name
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, paid_at, created_at, updated_at
	`

	err := r.db.Pool().QueryRow(ctx, query,
		event.UserID,
		event.OfferID,
		event.MerchantID,
		event.ClickID,
		event.TransactionAmount,
		event.CommissionAmount,
		event.CashbackAmount,
		event.Status,
		event.AffiliateTransactionID,
		event.Network,
		event.MerchantName,
	).Scan(&event.ID, &event.PaidAt, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert cashback event: %w", err)
	}
	return nil
}

// UpdateStatus sets the event status to the latest network-reported value
func (r *CashbackRepository) UpdateStatus(ctx context.Context, id int64, status types.CashbackStatus) error {
	query := `
		UPDATE cashback_events
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool().Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update cashback event %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cashback event %d not found", id)
	}
	return nil
}

// ListByUser returns a user's cashback events, newest first
func (r *CashbackRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.CashbackEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + cashbackEventColumns + `
		FROM cashback_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool().Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cashback events for user %d: %w", userID, err)
	}
	defer rows.Close()

	var events []*models.CashbackEvent
	for rows.Next() {
		event, err := scanCashbackEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cashback event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
