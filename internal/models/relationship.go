package models

import "time"

// Relationship is one employer/nanny pair with a state. Storing the pair
// once keeps link state symmetric by construction: both parties read the
// same row, so neither side can drift.
type Relationship struct {
	EmployerID string    `json:"employer_id"`
	NannyID    string    `json:"nanny_id"`
	Status     string    `json:"status"` // proposed, linked
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (r *Relationship) Involves(userID string) bool {
	return r.EmployerID == userID || r.NannyID == userID
}

// Counterpart returns the other party of the pair, or "" when the user is
// not a party at all.
func (r *Relationship) Counterpart(userID string) string {
	switch userID {
	case r.EmployerID:
		return r.NannyID
	case r.NannyID:
		return r.EmployerID
	}
	return ""
}
