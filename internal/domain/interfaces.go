package domain

import (
	"context"
	"time"

	"nannylink/internal/models"

	"github.com/shopspring/decimal"
)

type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUsers(ctx context.Context, ids []string) ([]*models.User, error)
	UpdateHourlyRate(ctx context.Context, id string, rate decimal.Decimal) error
	SearchUsers(ctx context.Context, role, term, excludeID string, limit int) ([]*models.User, error)

	// Relationships
	ProposeLink(ctx context.Context, employerID, nannyID string) (bool, error)
	AcceptLink(ctx context.Context, employerID, nannyID string, notification *models.Notification) error
	RejectLink(ctx context.Context, employerID, nannyID string) error
	Unlink(ctx context.Context, employerID, nannyID string) error
	ResetLinks(ctx context.Context, userID string) (int64, error)
	GetRelationship(ctx context.Context, employerID, nannyID string) (*models.Relationship, error)
	IsLinked(ctx context.Context, employerID, nannyID string) (bool, error)
	GetRelationshipsForUser(ctx context.Context, userID, status string) ([]*models.Relationship, error)

	// Schedule requests
	CreateScheduleRequest(ctx context.Context, req *models.ScheduleRequest) error
	GetScheduleRequest(ctx context.Context, id string) (*models.ScheduleRequest, error)
	UpdateScheduleRequestStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error
	UpdateScheduleRequestTimes(ctx context.Context, id string, fromVersion int64, startTime, endTime string) error
	DeleteScheduleRequest(ctx context.Context, id string) error
	GetScheduleRequestsForUser(ctx context.Context, userID, status string) ([]*models.ScheduleRequest, error)

	// Payments
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	UpdatePaymentStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error
	DeletePayment(ctx context.Context, id string) error
	GetPaymentsForUser(ctx context.Context, userID, status string) ([]*models.Payment, error)
	DeletePaymentsForUser(ctx context.Context, userID string) (int64, error)
	ClearBalances(ctx context.Context, userID string) (int64, int64, error)

	// Notifications
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotifications(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error

	// Change log
	AppendChange(ctx context.Context, rec *models.ChangeRecord) error
	GetPendingChanges(ctx context.Context, limit int) ([]models.ChangeRecord, error)
	GetChangesForUser(ctx context.Context, userID string) ([]models.ChangeRecord, error)
	UpdateChangeStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SummaryCache holds computed summaries keyed by user id. Implementations
// may lose entries at any time; the ledger recomputes on miss.
type SummaryCache interface {
	Get(ctx context.Context, userID string) (*models.Summary, error)
	Set(ctx context.Context, summary *models.Summary) error
	Invalidate(ctx context.Context, userID string) error
}

// Summarizer produces derived pay totals for one user.
type Summarizer interface {
	Summarize(ctx context.Context, userID string) (*models.Summary, error)
}
