package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/logging"
)

const defaultSendGridBaseURL = "https://api.sendgrid.com"

// SendGridSender delivers email through the SendGrid v3 mail API. Without
// an API key it logs the message instead of failing, matching development
// environments where no provider account exists.
type SendGridSender struct {
	apiKey    string
	fromEmail string
	fromName  string
	baseURL   string
	client    *http.Client
	logger    *logging.Logger
}

func NewSendGridSender(cfg *config.NotifyConfig, logger *logging.Logger) *SendGridSender {
	return &SendGridSender{
		apiKey:    cfg.SendGridAPIKey,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		baseURL:   defaultSendGridBaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger.WithField("sender", "sendgrid"),
	}
}

type sendGridPayload struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (s *SendGridSender) SendEmail(ctx context.Context, msg *EmailMessage) error {
	if msg.To == "" {
		return fmt.Errorf("email message has no recipient")
	}

	subject := EmailSubject(msg.Type)
	if s.apiKey == "" {
		s.logger.WithFields(map[string]interface{}{
			"to":      msg.To,
			"type":    msg.Type,
			"subject": subject,
		}).Info("no api key configured, email logged only")
		return nil
	}

	payload := sendGridPayload{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: msg.To}}}},
		From:             sendGridAddress{Email: s.fromEmail, Name: s.fromName},
		Subject:          subject,
		Content:          []sendGridContent{{Type: "text/html", Value: EmailBody(msg.Type, msg.Data)}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal sendgrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, string(detail))
	}

	s.logger.WithFields(map[string]interface{}{"to": msg.To, "type": msg.Type}).Info("email sent")
	return nil
}
