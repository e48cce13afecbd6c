package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/logging"
	"github.com/cashback-engine/internal/types"
)

const defaultCueLinksBaseURL = "https://api.cuelinks.com"

// CueLinksAdapter pulls transactions from the CueLinks API using a static
// API key
type CueLinksAdapter struct {
	apiKey  string
	baseURL string
	http    *httpClient
	logger  *logging.Logger
}

func NewCueLinksAdapter(cfg *config.NetworksConfig, logger *logging.Logger) *CueLinksAdapter {
	return &CueLinksAdapter{
		apiKey:  cfg.CueLinksAPIKey,
		baseURL: defaultCueLinksBaseURL,
		http:    newHTTPClient(cfg.RequestsPerSecond, logger),
		logger:  logger.WithField("network", string(types.NetworkCueLinks)),
	}
}

func (a *CueLinksAdapter) Name() types.Network {
	return types.NetworkCueLinks
}

type cuelinksTransaction struct {
	ID         json.Number `json:"id"`
	SubID      string      `json:"sub_id"`
	SubIDAlt   string      `json:"subid"`
	Date       string      `json:"date"`
	Commission json.Number `json:"commission"`
	Amount     json.Number `json:"amount"`
	Status     string      `json:"status"`
	Merchant   string      `json:"merchant"`
	Campaign   string      `json:"campaign"`
	Currency   string      `json:"currency"`
}

type cuelinksResponse struct {
	Transactions []cuelinksTransaction `json:"transactions"`
}

func (a *CueLinksAdapter) FetchTransactions(ctx context.Context, windowDays int, limit int) ([]Transaction, error) {
	if a.apiKey == "" {
		a.logger.Warn("missing credentials, skipping fetch")
		return []Transaction{}, nil
	}

	fetchURL := fmt.Sprintf("%s/transactions?start_date=%s&end_date=%s&limit=%d",
		a.baseURL, dateDaysAgo(windowDays), dateDaysAgo(0), limit)
	body, err := a.http.getJSON(ctx, fetchURL, map[string]string{
		"Authorization": "Bearer " + a.apiKey,
	})
	if err != nil {
		a.logger.WithError(err).Warn("fetch failed, returning no transactions")
		return []Transaction{}, nil
	}

	var parsed cuelinksResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		a.logger.WithError(err).Warn("failed to parse transactions response")
		return []Transaction{}, nil
	}

	txs := make([]Transaction, 0, len(parsed.Transactions))
	for _, row := range parsed.Transactions {
		subID := row.SubID
		if subID == "" {
			subID = row.SubIDAlt
		}
		amount, _ := row.Commission.Float64()
		if amount == 0 {
			amount, _ = row.Amount.Float64()
		}
		txs = append(txs, Transaction{
			Network:      types.NetworkCueLinks,
			ExternalID:   row.ID.String(),
			SubID:        subID,
			ActionDate:   row.Date,
			Amount:       amount,
			Status:       NormalizeStatus(row.Status),
			MerchantName: row.Merchant,
			OfferName:    row.Campaign,
			Currency:     row.Currency,
		})
	}
	return txs, nil
}
