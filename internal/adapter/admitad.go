package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/logging"
	"github.com/cashback-engine/internal/types"
)

const defaultAdmitadBaseURL = "https://api.admitad.com"

// AdmitadAdapter pulls action statistics from the Admitad API. Auth is
// OAuth2 client credentials: the adapter exchanges the client id/secret for
// a bearer token and caches it until shortly before expiry. A static access
// token in the config bypasses the exchange entirely.
type AdmitadAdapter struct {
	clientID     string
	clientSecret string
	accessToken  string
	baseURL      string
	http         *httpClient
	logger       *logging.Logger

	mu          sync.Mutex
	cachedToken string
	tokenExpiry time.Time
}

func NewAdmitadAdapter(cfg *config.NetworksConfig, logger *logging.Logger) *AdmitadAdapter {
	return &AdmitadAdapter{
		clientID:     cfg.AdmitadClientID,
		clientSecret: cfg.AdmitadClientSecret,
		accessToken:  cfg.AdmitadAccessToken,
		baseURL:      defaultAdmitadBaseURL,
		http:         newHTTPClient(cfg.RequestsPerSecond, logger),
		logger:       logger.WithField("network", string(types.NetworkAdmitad)),
	}
}

func (a *AdmitadAdapter) Name() types.Network {
	return types.NetworkAdmitad
}

type admitadTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type admitadAction struct {
	ActionID      json.Number `json:"action_id"`
	ID            json.Number `json:"id"`
	SubID         string      `json:"subid"`
	ActionDate    string      `json:"action_date"`
	PaymentAmount json.Number `json:"payment_amount"`
	PaymentStatus string      `json:"payment_status"`
	Status        string      `json:"status"`
	CampaignName  string      `json:"campaign_name"`
	Tariff        string      `json:"tariff"`
	Currency      string      `json:"currency"`
}

type admitadActionsResponse struct {
	Results []admitadAction `json:"results"`
}

// token returns a usable bearer token, exchanging credentials when the
// cached one is missing or about to expire
func (a *AdmitadAdapter) token(ctx context.Context) (string, error) {
	if a.accessToken != "" {
		return a.accessToken, nil
	}
	if a.clientID == "" || a.clientSecret == "" {
		return "", nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cachedToken != "" && time.Now().Before(a.tokenExpiry) {
		return a.cachedToken, nil
	}

	form := url.Values{
		"client_id":     {a.clientID},
		"client_secret": {a.clientSecret},
		"grant_type":    {"client_credentials"},
		"scope":         {"statistics actions"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.http.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange returned status %d", resp.StatusCode)
	}

	var tr admitadTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned empty access_token")
	}

	a.cachedToken = tr.AccessToken
	// Refresh a minute before the server-side expiry
	expiresIn := tr.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	a.tokenExpiry = time.Now().Add(time.Duration(expiresIn)*time.Second - time.Minute)

	return a.cachedToken, nil
}

func (a *AdmitadAdapter) FetchTransactions(ctx context.Context, windowDays int, limit int) ([]Transaction, error) {
	token, err := a.token(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("token exchange failed, skipping fetch")
		return []Transaction{}, nil
	}
	if token == "" {
		a.logger.Warn("missing credentials, skipping fetch")
		return []Transaction{}, nil
	}

	fetchURL := fmt.Sprintf("%s/statistics/actions/?date_start=%s&limit=%d", a.baseURL, dateDaysAgo(windowDays), limit)
	body, err := a.http.getJSON(ctx, fetchURL, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		a.logger.WithError(err).Warn("fetch failed, returning no transactions")
		return []Transaction{}, nil
	}

	var parsed admitadActionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		a.logger.WithError(err).Warn("failed to parse actions response")
		return []Transaction{}, nil
	}

	txs := make([]Transaction, 0, len(parsed.Results))
	for _, row := range parsed.Results {
		externalID := row.ActionID.String()
		if externalID == "" || externalID == "0" {
			externalID = row.ID.String()
		}
		rawStatus := row.PaymentStatus
		if rawStatus == "" {
			rawStatus = row.Status
		}
		amount, _ := row.PaymentAmount.Float64()
		txs = append(txs, Transaction{
			Network:      types.NetworkAdmitad,
			ExternalID:   externalID,
			SubID:        row.SubID,
			ActionDate:   row.ActionDate,
			Amount:       amount,
			Status:       NormalizeStatus(rawStatus),
			MerchantName: row.CampaignName,
			OfferName:    row.Tariff,
			Currency:     row.Currency,
		})
	}
	return txs, nil
}
