// Package notify delivers user-facing notifications. Senders degrade to
// log-only delivery when provider credentials are absent so a development
// environment never needs real API keys.
package notify

import "context"

// EmailMessage is the payload carried by jobs on the email queue
type EmailMessage struct {
	To   string                 `json:"to"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// SMSMessage is the payload carried by jobs on the sms queue
type SMSMessage struct {
	Mobile string                 `json:"mobile"`
	Type   string                 `json:"type"`
	Data   map[string]interface{} `json:"data"`
}

// Notification type names shared by producers and the delivery workers
const (
	TypeWelcome             = "welcome"
	TypeOrderConfirmation   = "order_confirmation"
	TypeCashbackConfirmed   = "cashback_confirmed"
	TypeWithdrawalProcessed = "withdrawal_processed"
	TypeCashbackCreditedSMS = "cashback_credited"
	TypeOTP                 = "otp"
)

// EmailSender delivers one email message
type EmailSender interface {
	SendEmail(ctx context.Context, msg *EmailMessage) error
}

// SMSSender delivers one SMS message
type SMSSender interface {
	SendSMS(ctx context.Context, msg *SMSMessage) error
}
