package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary holds the derived pay totals for one user. It is never
// persisted as state: every instance is recomputed from approved schedule
// requests and payment records.
type Summary struct {
	UserID           string          `json:"user_id"`
	TotalOwed        decimal.Decimal `json:"total_owed"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	PendingPaid      decimal.Decimal `json:"pending_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	ComputedAt       time.Time       `json:"computed_at"`
}
