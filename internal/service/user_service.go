package service

import (
	"context"

	"nannylink/internal/domain"
	"nannylink/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// UserService covers profile registration and the notification inbox.
type UserService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewUserService(store domain.Store, logger *zerolog.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

// Register creates a user profile. The role is fixed at registration;
// there is no role switching later.
func (s *UserService) Register(ctx context.Context, email, displayName, role string) (*models.User, error) {
	if role != models.RoleEmployer && role != models.RoleNanny {
		return nil, ErrRoleMismatch
	}

	user := &models.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		Role:        role,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *UserService) GetMany(ctx context.Context, ids []string) ([]*models.User, error) {
	return s.store.GetUsers(ctx, ids)
}

// UpdateHourlyRate changes a nanny's profile rate. Existing schedule
// requests keep the snapshot they were created with.
func (s *UserService) UpdateHourlyRate(ctx context.Context, nannyID string, rate decimal.Decimal) error {
	if rate.IsNegative() {
		return ErrInvalidAmount
	}
	return s.store.UpdateHourlyRate(ctx, nannyID, rate)
}

// Notifications returns the user's inbox, newest first.
func (s *UserService) Notifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	return s.store.GetNotifications(ctx, userID)
}

// MarkNotificationRead marks one inbox entry read. Only the recipient
// may mark it; the store enforces the ownership filter.
func (s *UserService) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkNotificationRead(ctx, userID, notificationID)
}
