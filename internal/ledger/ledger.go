// Package ledger reconciles affiliate transactions against the cashback
// event ledger and drives one-time wallet credits.
package ledger

import (
	"context"
	"fmt"

	"github.com/cashback-engine/internal/adapter"
	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/logging"
	"github.com/cashback-engine/internal/metrics"
	"github.com/cashback-engine/internal/models"
	"github.com/cashback-engine/internal/notify"
	"github.com/cashback-engine/internal/storage"
	"github.com/cashback-engine/internal/types"
)

// ClickStore resolves affiliate sub-ids back to recorded outbound clicks
type ClickStore interface {
	GetByClickID(ctx context.Context, clickID string) (*models.Click, error)
}

// CashbackStore persists cashback events keyed by network transaction
type CashbackStore interface {
	GetByNetworkTransaction(ctx context.Context, network types.Network, externalID string) (*models.CashbackEvent, error)
	Insert(ctx context.Context, event *models.CashbackEvent) error
	UpdateStatus(ctx context.Context, id int64, status types.CashbackStatus) error
}

// WalletStore applies the one-time wallet credit for an approved event
type WalletStore interface {
	CreditCashback(ctx context.Context, cashbackEventID int64) (*storage.CreditResult, error)
}

// JobEnqueuer pushes notification jobs onto a durable queue
type JobEnqueuer interface {
	Enqueue(ctx context.Context, name types.QueueName, job *models.Job) error
}

// Outcome classifies what ProcessTransaction did with a transaction
type Outcome string

const (
	// OutcomeSkipped means the transaction could not be attributed to a click
	OutcomeSkipped Outcome = "skipped"
	// OutcomeImported means a new cashback event was created
	OutcomeImported Outcome = "imported"
	// OutcomeUpdated means an existing event's status changed
	OutcomeUpdated Outcome = "updated"
	// OutcomeUnchanged means the event already reflected the reported status
	OutcomeUnchanged Outcome = "unchanged"
)

// Result reports the effect of processing one transaction
type Result struct {
	Outcome  Outcome
	Credited bool
}

// Updater applies affiliate transactions to the ledger. Processing a
// transaction any number of times converges on the same state: events are
// unique per (network, transaction id) and the wallet credit fires exactly
// once per event.
type Updater struct {
	clicks ClickStore
	events CashbackStore
	wallet WalletStore
	jobs   JobEnqueuer
	rates  *config.RatesConfig
	logger *logging.Logger
}

func NewUpdater(clicks ClickStore, events CashbackStore, wallet WalletStore, jobs JobEnqueuer, rates *config.RatesConfig, logger *logging.Logger) *Updater {
	return &Updater{
		clicks: clicks,
		events: events,
		wallet: wallet,
		jobs:   jobs,
		rates:  rates,
		logger: logger,
	}
}

// ProcessTransaction applies one affiliate transaction to the ledger
func (u *Updater) ProcessTransaction(ctx context.Context, tx adapter.Transaction) (Result, error) {
	if tx.SubID == "" || tx.ExternalID == "" {
		return Result{Outcome: OutcomeSkipped}, nil
	}

	click, err := u.clicks.GetByClickID(ctx, tx.SubID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to look up click %s: %w", tx.SubID, err)
	}
	if click == nil {
		// Transaction carried a sub-id we never issued
		return Result{Outcome: OutcomeSkipped}, nil
	}

	existing, err := u.events.GetByNetworkTransaction(ctx, tx.Network, tx.ExternalID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to look up event for %s/%s: %w", tx.Network, tx.ExternalID, err)
	}

	if existing != nil {
		return u.applyStatus(ctx, existing, tx.Status)
	}

	event := &models.CashbackEvent{
		UserID:                 click.UserID,
		OfferID:                click.OfferID,
		MerchantID:             click.MerchantID,
		ClickID:                click.ClickID,
		TransactionAmount:      tx.Amount,
		CommissionAmount:       tx.Amount * u.rates.Commission,
		CashbackAmount:         tx.Amount * u.rates.Cashback,
		Status:                 tx.Status,
		AffiliateTransactionID: tx.ExternalID,
		Network:                tx.Network,
		MerchantName:           tx.MerchantName,
	}
	if err := u.events.Insert(ctx, event); err != nil {
		return Result{}, fmt.Errorf("failed to insert event for %s/%s: %w", tx.Network, tx.ExternalID, err)
	}
	metrics.EventsImported.WithLabelValues(string(tx.Network)).Inc()

	result := Result{Outcome: OutcomeImported}
	if tx.Status == types.StatusApproved {
		credited, err := u.Credit(ctx, event.ID)
		if err != nil {
			return result, err
		}
		result.Credited = credited
	}
	return result, nil
}

// applyStatus reconciles an existing event with the network-reported status
func (u *Updater) applyStatus(ctx context.Context, event *models.CashbackEvent, status types.CashbackStatus) (Result, error) {
	if event.Status == status {
		return Result{Outcome: OutcomeUnchanged}, nil
	}

	if err := u.events.UpdateStatus(ctx, event.ID, status); err != nil {
		return Result{}, fmt.Errorf("failed to update event %d status: %w", event.ID, err)
	}
	metrics.EventsUpdated.WithLabelValues(string(event.Network)).Inc()

	result := Result{Outcome: OutcomeUpdated}
	if status == types.StatusApproved {
		credited, err := u.Credit(ctx, event.ID)
		if err != nil {
			return result, err
		}
		result.Credited = credited
	}
	return result, nil
}

// Credit applies the one-time wallet credit for an event and queues the
// confirmation email. Returns false when the event was already paid out.
// Notification enqueue failures are logged, never propagated: the money is
// already committed and the job queue must not be able to roll it back.
func (u *Updater) Credit(ctx context.Context, cashbackEventID int64) (bool, error) {
	res, err := u.wallet.CreditCashback(ctx, cashbackEventID)
	if err != nil {
		return false, fmt.Errorf("failed to credit event %d: %w", cashbackEventID, err)
	}
	if !res.Credited {
		return false, nil
	}

	metrics.WalletCredits.Inc()
	u.logger.WithFields(map[string]interface{}{
		"event_id": cashbackEventID,
		"user_id":  res.UserID,
		"amount":   res.Amount,
	}).Info("cashback credited to wallet")

	if res.Email != "" {
		u.enqueueConfirmation(ctx, cashbackEventID, res)
	}
	return true, nil
}

func (u *Updater) enqueueConfirmation(ctx context.Context, cashbackEventID int64, res *storage.CreditResult) {
	merchantName := res.MerchantName
	if merchantName == "" {
		merchantName = "merchant"
	}

	job, err := models.NewJob(notify.TypeCashbackConfirmed, notify.EmailMessage{
		To:   res.Email,
		Type: notify.TypeCashbackConfirmed,
		Data: map[string]interface{}{
			"user_name":      res.UserName,
			"amount":         res.Amount,
			"merchant_name":  merchantName,
			"wallet_balance": res.BalanceAfter,
		},
	})
	if err != nil {
		u.logger.WithError(err).WithField("event_id", cashbackEventID).Error("failed to build confirmation job")
		return
	}

	if err := u.jobs.Enqueue(ctx, types.QueueEmail, job); err != nil {
		u.logger.WithError(err).WithField("event_id", cashbackEventID).Error("failed to enqueue confirmation email")
	}
}
