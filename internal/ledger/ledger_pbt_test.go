package ledger

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/cashback-engine/internal/config"
	"github.com/cashback-engine/internal/types"
)

// Commission and cashback are linear in the reported amount and the cashback
// share never exceeds what the transaction itself is worth.
func TestImportedAmountsFollowConfiguredRates(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("event amounts are amount times rate", prop.ForAll(
		func(amount, commissionRate, cashbackRate float64) bool {
			f := newFixture()
			f.updater.rates = &config.RatesConfig{Commission: commissionRate, Cashback: cashbackRate}

			tx := pendingTx()
			tx.Amount = amount
			result, err := f.updater.ProcessTransaction(context.Background(), tx)
			if err != nil || result.Outcome != OutcomeImported {
				return false
			}

			event, err := f.events.GetByNetworkTransaction(context.Background(), tx.Network, tx.ExternalID)
			if err != nil || event == nil {
				return false
			}
			return event.CommissionAmount == amount*commissionRate &&
				event.CashbackAmount == amount*cashbackRate &&
				event.CashbackAmount >= 0 &&
				event.CashbackAmount <= amount
		},
		gen.Float64Range(0.01, 1_000_000),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

// Replaying the same network transaction any number of times leaves exactly
// one ledger event and at most one wallet credit.
func TestReplayedTransactionsStayUnique(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("replays never duplicate events or credits", prop.ForAll(
		func(replays int, approved bool) bool {
			f := newFixture()

			tx := pendingTx()
			if approved {
				tx.Status = types.StatusApproved
			}
			for i := 0; i < replays; i++ {
				if _, err := f.updater.ProcessTransaction(context.Background(), tx); err != nil {
					return false
				}
			}

			wantCredits := 0
			if approved {
				wantCredits = 1
			}
			return len(f.events.events) == 1 && f.wallet.credits == wantCredits
		},
		gen.IntRange(1, 10),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
