package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleRequest is one proposed working day. The hourly rate is a
// snapshot taken from the nanny's profile at creation time and is never
// re-read afterwards.
type ScheduleRequest struct {
	ID         string          `json:"id"`
	EmployerID string          `json:"employer_id"`
	NannyID    string          `json:"nanny_id"`
	Date       time.Time       `json:"date"`
	StartTime  string          `json:"start_time"` // HH:MM
	EndTime    string          `json:"end_time"`   // HH:MM
	Status     string          `json:"status"` // pending, approved, rejected
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Version    int64           `json:"version"`
}
