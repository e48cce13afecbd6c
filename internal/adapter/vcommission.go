package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/logging"
	"github.com/cashback-engine/internal/types"
)

const defaultVCommissionBaseURL = "https://api.vcommission.com"

// VCommissionAdapter pulls conversions from the VCommission API using a
// static bearer token
type VCommissionAdapter struct {
	token   string
	baseURL string
	http    *httpClient
	logger  *logging.Logger
}

func NewVCommissionAdapter(cfg *config.NetworksConfig, logger *logging.Logger) *VCommissionAdapter {
	return &VCommissionAdapter{
		token:   cfg.VCommissionToken,
		baseURL: defaultVCommissionBaseURL,
		http:    newHTTPClient(cfg.RequestsPerSecond, logger),
		logger:  logger.WithField("network", string(types.NetworkVCommission)),
	}
}

func (a *VCommissionAdapter) Name() types.Network {
	return types.NetworkVCommission
}

type vcommissionTransaction struct {
	ID           json.Number `json:"id"`
	SubID        string      `json:"subid"`
	SubIDOne     string      `json:"subid_one"`
	Datetime     string      `json:"datetime"`
	Date         string      `json:"date"`
	SaleAmount   json.Number `json:"sale_amount"`
	Payout       json.Number `json:"payout"`
	Status       string      `json:"status"`
	MerchantName string      `json:"merchant_name"`
	OfferName    string      `json:"offer_name"`
	Currency     string      `json:"currency"`
}

type vcommissionResponse struct {
	Data []vcommissionTransaction `json:"data"`
}

func (a *VCommissionAdapter) FetchTransactions(ctx context.Context, windowDays int, limit int) ([]Transaction, error) {
	if a.token == "" {
		a.logger.Warn("missing credentials, skipping fetch")
		return []Transaction{}, nil
	}

	fetchURL := fmt.Sprintf("%s/transactions?from=%s&limit=%d", a.baseURL, dateDaysAgo(windowDays), limit)
	body, err := a.http.getJSON(ctx, fetchURL, map[string]string{
		"Authorization": "Bearer " + a.token,
	})
	if err != nil {
		a.logger.WithError(err).Warn("fetch failed, returning no transactions")
		return []Transaction{}, nil
	}

	var parsed vcommissionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		a.logger.WithError(err).Warn("failed to parse transactions response")
		return []Transaction{}, nil
	}

	txs := make([]Transaction, 0, len(parsed.Data))
	for _, row := range parsed.Data {
		subID := row.SubID
		if subID == "" {
			subID = row.SubIDOne
		}
		actionDate := row.Datetime
		if actionDate == "" {
			actionDate = row.Date
		}
		amount, _ := row.SaleAmount.Float64()
		if amount == 0 {
			amount, _ = row.Payout.Float64()
		}
		txs = append(txs, Transaction{
			Network:      types.NetworkVCommission,
			ExternalID:   row.ID.String(),
			SubID:        subID,
			ActionDate:   actionDate,
			Amount:       amount,
			Status:       NormalizeStatus(row.Status),
			MerchantName: row.MerchantName,
			OfferName:    row.OfferName,
			Currency:     row.Currency,
		})
	}
	return txs, nil
}
