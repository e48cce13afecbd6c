package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/logging"
)

const defaultMSG91BaseURL = "https://api.msg91.com"

// MSG91Sender delivers SMS through the MSG91 flow API. Like the email
// sender, missing credentials downgrade delivery to logging.
type MSG91Sender struct {
	authKey  string
	senderID string
	baseURL  string
	client   *http.Client
	logger   *logging.Logger
}

func NewMSG91Sender(cfg *config.NotifyConfig, logger *logging.Logger) *MSG91Sender {
	return &MSG91Sender{
		authKey:  cfg.MSG91AuthKey,
		senderID: cfg.MSG91SenderID,
		baseURL:  defaultMSG91BaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger.WithField("sender", "msg91"),
	}
}

func (s *MSG91Sender) SendSMS(ctx context.Context, msg *SMSMessage) error {
	if msg.Mobile == "" {
		return fmt.Errorf("sms message has no recipient")
	}

	text := SMSText(msg.Type, msg.Data)
	if s.authKey == "" {
		s.logger.WithFields(map[string]interface{}{
			"mobile": msg.Mobile,
			"type":   msg.Type,
		}).Info("no auth key configured, sms logged only")
		return nil
	}

	payload := map[string]interface{}{
		"sender":  s.senderID,
		"mobiles": strings.TrimPrefix(msg.Mobile, "+91"),
		"VAR1":    text,
	}
	for k, v := range msg.Data {
		payload[k] = v
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal msg91 payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v5/flow/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build msg91 request: %w", err)
	}
	req.Header.Set("authkey", s.authKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("msg91 request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("msg91 returned status %d: %s", resp.StatusCode, string(detail))
	}

	s.logger.WithFields(map[string]interface{}{"mobile": msg.Mobile, "type": msg.Type}).Info("sms sent")
	return nil
}
