package models

import (
	"time"

	"github.com/cashback-engine/internal/types"
)

// CashbackEvent records one affiliate-reported transaction and its current
// approval status. At most one event exists per (network, affiliate
// transaction id) pair. PaidAt is set exactly once, the first time the
// status becomes approved; its presence guards against double-crediting.
type CashbackEvent struct {
	ID                     int64                `json:"id"`
	UserID                 int64                `json:"userId"`
	OfferID                int64                `json:"offerId"`
	MerchantID             int64                `json:"merchantId"`
	ClickID                string               `json:"clickId"`
	TransactionAmount      float64              `json:"transactionAmount"`
	CommissionAmount       float64              `json:"commissionAmount"`
	CashbackAmount         float64              `json:"cashbackAmount"`
	Status                 types.CashbackStatus `json:"status"`
	AffiliateTransactionID string               `json:"affiliateTransactionId"`
	Network                types.Network        `json:"network"`
	MerchantName           string               `json:"merchantName,omitempty"`
	PaidAt                 *time.Time           `json:"paidAt,omitempty"`
	CreatedAt              time.Time            `json:"createdAt"`
	UpdatedAt              time.Time            `json:"updatedAt"`
}
