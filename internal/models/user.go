package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	DisplayName string              `json:"display_name"`
	Role        string              `json:"role"` // employer, nanny
	HourlyRate  decimal.NullDecimal `json:"hourly_rate"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (u *User) IsEmployer() bool {
	return u.Role == RoleEmployer
}

func (u *User) IsNanny() bool {
	return u.Role == RoleNanny
}
