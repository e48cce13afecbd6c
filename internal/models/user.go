package models

import "time"

// User carries the wallet fields the reconciliation pipeline touches.
// Profile, auth and the rest of the account surface live elsewhere.
type User struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"fullName"`
	WalletBalance    float64   `json:"walletBalance"`
	LifetimeEarnings float64   `json:"lifetimeEarnings"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
