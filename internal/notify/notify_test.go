package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelError, logging.FormatText)
}

func TestEmailSubject(t *testing.T) {
	assert.Equal(t, "Cashback Credited to Your Wallet", EmailSubject(TypeCashbackConfirmed))
	assert.Equal(t, "Welcome to CouponAli!", EmailSubject(TypeWelcome))
	assert.Equal(t, "Notification", EmailSubject("something_new"))
}

func TestEmailBodyCashbackConfirmed(t *testing.T) {
	body := EmailBody(TypeCashbackConfirmed, map[string]interface{}{
		"user_name":     "Priya",
		"amount":        float64(45), // JSON numbers decode as float64
		"merchant_name": "Myntra",
	})
	assert.Contains(t, body, "Priya")
	assert.Contains(t, body, "45")
	assert.Contains(t, body, "Myntra")
}

func TestEmailBodyMissingFieldsUseFallbacks(t *testing.T) {
	body := EmailBody(TypeCashbackConfirmed, map[string]interface{}{})
	assert.Contains(t, body, "Hi there")
	assert.Contains(t, body, "merchant")
}

func TestEmailBodyUnknownType(t *testing.T) {
	body := EmailBody("mystery", map[string]interface{}{"k": "v"})
	assert.Contains(t, body, "CouponAli Notification")
	assert.Contains(t, body, `"k":"v"`)
}

func TestSMSText(t *testing.T) {
	text := SMSText(TypeCashbackCreditedSMS, map[string]interface{}{
		"amount":        12.5,
		"merchant_name": "Ajio",
	})
	assert.Contains(t, text, "12.50")
	assert.Contains(t, text, "Ajio")

	otp := SMSText(TypeOTP, map[string]interface{}{"otp": "4821"})
	assert.Contains(t, otp, "4821")
}

func TestSendGridSenderSends(t *testing.T) {
	var captured sendGridPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendGridSender(&config.NotifyConfig{
		SendGridAPIKey: "sg-key",
		FromEmail:      "noreply@couponali.com",
		FromName:       "CouponAli",
	}, testLogger())
	s.baseURL = srv.URL

	err := s.SendEmail(context.Background(), &EmailMessage{
		To:   "user@example.com",
		Type: TypeCashbackConfirmed,
		Data: map[string]interface{}{"user_name": "Priya", "amount": float64(45), "merchant_name": "Myntra"},
	})
	require.NoError(t, err)

	require.Len(t, captured.Personalizations, 1)
	assert.Equal(t, "user@example.com", captured.Personalizations[0].To[0].Email)
	assert.Equal(t, "noreply@couponali.com", captured.From.Email)
	assert.Equal(t, "Cashback Credited to Your Wallet", captured.Subject)
	require.Len(t, captured.Content, 1)
	assert.Equal(t, "text/html", captured.Content[0].Type)
	assert.Contains(t, captured.Content[0].Value, "Myntra")
}

func TestSendGridSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	s := NewSendGridSender(&config.NotifyConfig{SendGridAPIKey: "bad"}, testLogger())
	s.baseURL = srv.URL

	err := s.SendEmail(context.Background(), &EmailMessage{To: "user@example.com", Type: TypeWelcome})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSendGridSenderLogOnlyWithoutKey(t *testing.T) {
	s := NewSendGridSender(&config.NotifyConfig{}, testLogger())

	err := s.SendEmail(context.Background(), &EmailMessage{To: "user@example.com", Type: TypeWelcome})
	require.NoError(t, err)
}

func TestSendGridSenderRejectsEmptyRecipient(t *testing.T) {
	s := NewSendGridSender(&config.NotifyConfig{}, testLogger())

	err := s.SendEmail(context.Background(), &EmailMessage{Type: TypeWelcome})
	require.Error(t, err)
}

func TestMSG91SenderSends(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/flow/", r.URL.Path)
		assert.Equal(t, "auth-key", r.Header.Get("authkey"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Write([]byte(`{"type":"success"}`))
	}))
	defer srv.Close()

	s := NewMSG91Sender(&config.NotifyConfig{
		MSG91AuthKey:  "auth-key",
		MSG91SenderID: "COUPON",
	}, testLogger())
	s.baseURL = srv.URL

	err := s.SendSMS(context.Background(), &SMSMessage{
		Mobile: "+919876543210",
		Type:   TypeCashbackCreditedSMS,
		Data:   map[string]interface{}{"amount": float64(45), "merchant_name": "Myntra"},
	})
	require.NoError(t, err)

	// Country prefix is stripped for the provider
	assert.Equal(t, "9876543210", captured["mobiles"])
	assert.Equal(t, "COUPON", captured["sender"])
	text, _ := captured["VAR1"].(string)
	assert.True(t, strings.Contains(text, "Myntra"))
}

func TestMSG91SenderLogOnlyWithoutKey(t *testing.T) {
	s := NewMSG91Sender(&config.NotifyConfig{}, testLogger())

	err := s.SendSMS(context.Background(), &SMSMessage{Mobile: "+919876543210", Type: TypeOTP})
	require.NoError(t, err)
}
