package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"nannylink/internal/events"
	"nannylink/internal/models"

	"github.com/shopspring/decimal"
)

// Replay folds an ordered change history into the same summary Summarize
// would compute from live state. The fold is pure: same records in, same
// totals out, which makes reconciliation behavior replayable in tests
// without a store.
func Replay(userID string, records []models.ChangeRecord) (*models.Summary, error) {
	owed := make(map[string]decimal.Decimal)
	paid := make(map[string]decimal.Decimal)
	pending := make(map[string]decimal.Decimal)

	for _, rec := range records {
		var payload events.PairEventPayload
		if rec.Payload != "" {
			if err := json.Unmarshal([]byte(rec.Payload), &payload); err != nil {
				return nil, fmt.Errorf("replay: record %d: %w", rec.ID, err)
			}
		}

		switch rec.EventType {
		case events.EventScheduleApproved:
			amount, err := decimal.NewFromString(payload.Amount)
			if err != nil {
				return nil, fmt.Errorf("replay: record %d amount: %w", rec.ID, err)
			}
			owed[rec.EntityID] = amount

		case events.EventScheduleRejected, events.EventScheduleDeleted:
			delete(owed, rec.EntityID)

		case events.EventPaymentRecorded:
			amount, err := decimal.NewFromString(payload.Amount)
			if err != nil {
				return nil, fmt.Errorf("replay: record %d amount: %w", rec.ID, err)
			}
			pending[rec.EntityID] = amount

		case events.EventPaymentConfirmed:
			amount, ok := pending[rec.EntityID]
			if !ok {
				var err error
				amount, err = decimal.NewFromString(payload.Amount)
				if err != nil {
					return nil, fmt.Errorf("replay: record %d amount: %w", rec.ID, err)
				}
			}
			delete(pending, rec.EntityID)
			paid[rec.EntityID] = amount

		case events.EventPaymentRejected:
			delete(pending, rec.EntityID)

		case events.EventPaymentDeleted:
			delete(pending, rec.EntityID)
			delete(paid, rec.EntityID)

		case events.EventPaymentsReset:
			// Payments vanish; approved requests are untouched.
			paid = make(map[string]decimal.Decimal)
			pending = make(map[string]decimal.Decimal)

		case events.EventBalancesCleared:
			// Approved requests revert to pending and payments vanish.
			owed = make(map[string]decimal.Decimal)
			paid = make(map[string]decimal.Decimal)
			pending = make(map[string]decimal.Decimal)
		}
	}

	summary := &models.Summary{
		UserID:      userID,
		TotalOwed:   decimal.Zero,
		TotalPaid:   decimal.Zero,
		PendingPaid: decimal.Zero,
		ComputedAt:  time.Now(),
	}
	for _, amount := range owed {
		summary.TotalOwed = summary.TotalOwed.Add(amount)
	}
	for _, amount := range paid {
		summary.TotalPaid = summary.TotalPaid.Add(amount)
	}
	for _, amount := range pending {
		summary.PendingPaid = summary.PendingPaid.Add(amount)
	}
	summary.RemainingBalance = summary.TotalOwed.Sub(summary.TotalPaid)

	return summary, nil
}
