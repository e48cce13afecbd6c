package models

import (
	"time"

	"github.com/cashback-engine/internal/types"
)

// WalletTransaction is an immutable row in the wallet ledger. Rows are
// append-only; the user's running balance and the ledger row are written
// in the same database transaction so they can never diverge.
type WalletTransaction struct {
	ID            int64                       `json:"id"`
	UserID        int64                       `json:"userId"`
	Amount        float64                     `json:"amount"`
	Type          types.WalletTransactionType `json:"type"`
	ReferenceType string                      `json:"referenceType"`
	ReferenceID   int64                       `json:"referenceId"`
	BalanceBefore float64                     `json:"balanceBefore"`
	BalanceAfter  float64                     `json:"balanceAfter"`
	Description   string                      `json:"description"`
	CreatedAt     time.Time                   `json:"createdAt"`
}
