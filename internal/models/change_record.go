package models

import "time"

// ChangeRecord is one appended state transition. The change log is the
// queue the refresh worker drains and the input for summary replay.
type ChangeRecord struct {
	ID          int64      `json:"id"`
	EventType   string     `json:"event_type"`
	EntityID    string     `json:"entity_id"`
	EmployerID  string     `json:"employer_id"`
	NannyID     string     `json:"nanny_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"` // pending, processed, retry, failed
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}
