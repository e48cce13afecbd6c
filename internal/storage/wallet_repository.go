package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/cashback-engine/internal/models"
	"github.com/cashback-engine/internal/types"
	"github.com/jackc/pgx/v5"
)

// WalletRepository handles the wallet ledger and the one-time cashback
// credit. The credit path is the only place in the system that mutates
// wallet balances.
type WalletRepository struct {
	db *PostgresDB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *PostgresDB) *WalletRepository {
	return &WalletRepository{db: db}
}

// CreditResult describes the outcome of a credit attempt. Credited is false
// when the event was already paid out, which callers treat as success.
type CreditResult struct {
	Credited     bool
	UserID       int64
	Email        string
	UserName     string
	Amount       float64
	BalanceAfter float64
	MerchantName string
}

// CreditCashback applies the one-time wallet credit for an approved cashback
// event. The event row and the user row are locked, the ledger row is
// inserted from the user's current balance, the running balance and lifetime
// earnings are bumped, and paid_at is set - all in a single transaction.
// A second call for the same event sees paid_at and returns without writing.
func (r *WalletRepository) CreditCashback(ctx context.Context, cashbackEventID int64) (*CreditResult, error) {
	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin credit transaction: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck // no-op after commit

	var (
		userID         int64
		cashbackAmount float64
		merchantName   string
		paid           bool
	)
	err = tx.QueryRow(ctx, `
		SELECT user_id, cashback_amount, merchant_name, paid_at IS NOT NULL
		FROM cashback_events
		WHERE id = $1
		FOR UPDATE
	`, cashbackEventID).Scan(&userID, &cashbackAmount, &merchantName, &paid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("cashback event %d not found", cashbackEventID)
		}
		return nil, fmt.Errorf("failed to read cashback event %d: %w", cashbackEventID, err)
	}

	if merchantName == "" {
		merchantName = "merchant"
	}

	result := &CreditResult{
		UserID:       userID,
		Amount:       cashbackAmount,
		MerchantName: merchantName,
	}

	// Idempotency guard: paid_at is set exactly once
	if paid {
		return result, nil
	}

	var balanceBefore float64
	err = tx.QueryRow(ctx, `
		SELECT email, full_name, wallet_balance
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID).Scan(&result.Email, &result.UserName, &balanceBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}

	balanceAfter := balanceBefore + cashbackAmount

	_, err = tx.Exec(ctx, `
		INSERT INTO wallet_transactions (
			user_id, amount, type, reference_type, reference_id,
			balance_before, balance_after, description
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		userID,
		cashbackAmount,
		types.WalletTxCashbackEarned,
		"cashback_event",
		cashbackEventID,
		balanceBefore,
		balanceAfter,
		fmt.Sprintf("Cashback from %s", merchantName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert wallet transaction: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET wallet_balance = wallet_balance + $2,
		    lifetime_earnings = lifetime_earnings + $2,
		    updated_at = NOW()
		WHERE id = $1
	`, userID, cashbackAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to update wallet balance: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE cashback_events
		SET paid_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, cashbackEventID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark cashback event %d paid: %w", cashbackEventID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit credit transaction: %w", err)
	}

	result.Credited = true
	result.BalanceAfter = balanceAfter
	return result, nil
}

// GetUser retrieves a user's wallet fields. Returns (nil, nil) when not found.
func (r *WalletRepository) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	query := `
		SELECT id, email, full_name, wallet_balance, lifetime_earnings, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := r.db.Pool().QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.WalletBalance,
		&user.LifetimeEarnings,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return &user, nil
}

// ListTransactions returns a user's wallet ledger rows, newest first
func (r *WalletRepository) ListTransactions(ctx context.Context, userID int64, limit int) ([]*models.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, amount, type, reference_type, reference_id,
		       balance_before, balance_after, description, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Pool().Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var txs []*models.WalletTransaction
	for rows.Next() {
		var wt models.WalletTransaction
		err := rows.Scan(
			&wt.ID,
			&wt.UserID,
			&wt.Amount,
			&wt.Type,
			&wt.ReferenceType,
			&wt.ReferenceID,
			&wt.BalanceBefore,
			&wt.BalanceAfter,
			&wt.Description,
			&wt.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		txs = append(txs, &wt)
	}
	return txs, rows.Err()
}
