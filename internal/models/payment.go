package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a manually recorded transfer from an employer to a nanny.
// Name fields are denormalized snapshots captured at creation.
type Payment struct {
	ID           string          `json:"id"`
	EmployerID   string          `json:"employer_id"`
	NannyID      string          `json:"nanny_id"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Status       string          `json:"status"` // pending, confirmed, rejected
	Method       string          `json:"method"` // cash, bank_transfer
	Note         string          `json:"note,omitempty"`
	EmployerName string          `json:"employer_name"`
	NannyName    string          `json:"nanny_name"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int64           `json:"version"`
}
