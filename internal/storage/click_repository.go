package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/cashback-engine/internal/models"
	"github.com/jackc/pgx/v5"
)

// ClickRepository reads recorded affiliate clicks. Clicks are written by the
// redirect service; this pipeline only looks them up for attribution.
type ClickRepository struct {
	db *PostgresDB
}

// NewClickRepository creates a new click repository
func NewClickRepository(db *PostgresDB) *ClickRepository {
	return &ClickRepository{db: db}
}

// GetByClickID retrieves a click by its tracking id. Returns (nil, nil) when
// no click matches - affiliate networks report transactions from traffic
// that never went through the platform.
func (r *ClickRepository) GetByClickID(ctx context.Context, clickID string) (*models.Click, error) {
	query := `
		SELECT click_id, user_id, offer_id, merchant_id, created_at
		FROM offer_clicks
		WHERE click_id = $1
	`

	var click models.Click
	err := r.db.Pool().QueryRow(ctx, query, clickID).Scan(
		&click.ClickID,
		&click.UserID,
		&click.OfferID,
		&click.MerchantID,
		&click.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get click %s: %w", clickID, err)
	}

	return &click, nil
}

// Create records a click. Exposed for test fixtures and backfill tooling;
// the production writer is the redirect service.
func (r *ClickRepository) Create(ctx context.Context, click *models.Click) error {
	query := `
		INSERT INTO offer_clicks (click_id, user_id, offer_id, merchant_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		click.ClickID,
		click.UserID,
		click.OfferID,
		click.MerchantID,
		click.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create click: %w", err)
	}
	return nil
}
