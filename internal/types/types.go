// Package types provides common type definitions for the cashback engine.
package types

// Network represents a supported affiliate network
type Network string

const (
	// NetworkAdmitad represents the Admitad affiliate network
	NetworkAdmitad Network = "admitad"
	// NetworkVCommission represents the VCommission affiliate network
	NetworkVCommission Network = "vcommission"
	// NetworkCueLinks represents the CueLinks affiliate network
	NetworkCueLinks Network = "cuelinks"
)

// AllNetworks lists every supported affiliate network
var AllNetworks = []Network{NetworkAdmitad, NetworkVCommission, NetworkCueLinks}

// CashbackStatus represents the canonical approval state of a cashback event
type CashbackStatus string

const (
	// StatusPending represents a transaction awaiting merchant confirmation
	StatusPending CashbackStatus = "pending"
	// StatusApproved represents a transaction confirmed by the merchant
	StatusApproved CashbackStatus = "approved"
	// StatusRejected represents a transaction declined by the merchant
	StatusRejected CashbackStatus = "rejected"
	// StatusCancelled represents a transaction cancelled after reporting
	StatusCancelled CashbackStatus = "cancelled"
)

// Valid reports whether s is one of the canonical cashback statuses
func (s CashbackStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// QueueName identifies a named durable job queue
type QueueName string

const (
	// QueueEmail is the email notification delivery queue
	QueueEmail QueueName = "email"
	// QueueSMS is the SMS notification delivery queue
	QueueSMS QueueName = "sms"
)

// WalletTransactionType classifies entries in the wallet ledger
type WalletTransactionType string

const (
	// WalletTxCashbackEarned represents a cashback credit
	WalletTxCashbackEarned WalletTransactionType = "cashback_earned"
	// WalletTxWithdrawal represents a withdrawal debit
	WalletTxWithdrawal WalletTransactionType = "withdrawal"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
