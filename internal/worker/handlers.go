package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cashback-engine/internal/models"
	"github.com/cashback-engine/internal/notify"
)

// EmailHandler builds a job handler that decodes email payloads and hands
// them to the sender. The job type doubles as the template name.
func EmailHandler(sender notify.EmailSender) Handler {
	return func(ctx context.Context, job *models.Job) error {
		var msg notify.EmailMessage
		if err := json.Unmarshal(job.Payload, &msg); err != nil {
			return fmt.Errorf("invalid email payload: %w", err)
		}
		if msg.Type == "" {
			msg.Type = job.Type
		}
		return sender.SendEmail(ctx, &msg)
	}
}

// SMSHandler builds a job handler that decodes SMS payloads and hands them
// to the sender
func SMSHandler(sender notify.SMSSender) Handler {
	return func(ctx context.Context, job *models.Job) error {
		var msg notify.SMSMessage
		if err := json.Unmarshal(job.Payload, &msg); err != nil {
			return fmt.Errorf("invalid sms payload: %w", err)
		}
		if msg.Type == "" {
			msg.Type = job.Type
		}
		return sender.SendSMS(ctx, &msg)
	}
}
