// Package adapter implements the affiliate network clients. Each network
// exposes its own transaction schema and auth scheme; adapters normalize
// everything into the shared Transaction shape so the synchronizer never has
// to know which network a row came from.
package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cashback-engine/internal/logging"
	"github.com/cashback-engine/internal/types"
)

// Transaction is a single affiliate action reported by a network, already
// normalized to our status vocabulary
type Transaction struct {
	Network      types.Network        `json:"network"`
	ExternalID   string               `json:"externalId"`
	SubID        string               `json:"subId"`
	ActionDate   string               `json:"actionDate"`
	Amount       float64              `json:"amount"`
	Status       types.CashbackStatus `json:"status"`
	MerchantName string               `json:"merchantName,omitempty"`
	OfferName    string               `json:"offerName,omitempty"`
	Currency     string               `json:"currency,omitempty"`
}

// NetworkAdapter fetches recent transactions from one affiliate network.
// Implementations must never fail the whole sync for recoverable problems:
// missing credentials or a non-2xx response log a warning and return an
// empty slice.
type NetworkAdapter interface {
	Name() types.Network
	FetchTransactions(ctx context.Context, windowDays int, limit int) ([]Transaction, error)
}

// statusMap translates each network's raw status strings into our
// vocabulary. Unknown values fall through to pending so a new network-side
// status can never trigger a payout on its own.
var statusMap = map[string]types.CashbackStatus{
	"approved":  types.StatusApproved,
	"confirmed": types.StatusApproved,
	"pending":   types.StatusPending,
	"hold":      types.StatusPending,
	"rejected":  types.StatusRejected,
	"declined":  types.StatusRejected,
	"cancelled": types.StatusCancelled,
}

// NormalizeStatus maps a raw network status onto the shared vocabulary
func NormalizeStatus(raw string) types.CashbackStatus {
	if status, ok := statusMap[strings.ToLower(raw)]; ok {
		return status
	}
	return types.StatusPending
}

// dateDaysAgo formats the UTC date N days back the way the network APIs
// expect (YYYY-MM-DD)
func dateDaysAgo(days int) string {
	return time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
}

// httpClient wraps http.Client with a token-bucket limiter shared by all
// requests to one network, so a sync burst cannot trip the network's API
// quota
type httpClient struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *logging.Logger
}

func newHTTPClient(requestsPerSecond int, logger *logging.Logger) *httpClient {
	return &httpClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
	}
}

// getJSON performs a rate-limited GET and returns the response body. A
// non-2xx status is returned as an error carrying the status code and a
// snippet of the body.
func (c *httpClient) getJSON(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 256))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
