package models

import "time"

type Notification struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"` // link_request, link_accepted, link_rejected
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	Status     string    `json:"status"` // unread, read
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
