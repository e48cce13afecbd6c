package models

import "time"

// Click represents a recorded user redirect through an affiliate link.
// Clicks are written by the redirect flow; the reconciliation pipeline
// only reads them to attribute affiliate-reported transactions.
type Click struct {
	ClickID    string    `json:"clickId"`
	UserID     int64     `json:"userId"`
	OfferID    int64     `json:"offerId"`
	MerchantID int64     `json:"merchantId"`
	CreatedAt  time.Time `json:"createdAt"`
}
