package service

import (
	"context"

	"nannylink/internal/domain"
	"nannylink/internal/events"
	"nannylink/internal/models"

	"github.com/rs/zerolog"
)

// MaintenanceService holds the destructive reset flows used in test
// environments. Every operation refuses to run unless maintenance mode
// was enabled at startup, and wiring never enables it in production.
type MaintenanceService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	allowed  bool
	logger   *zerolog.Logger
}

func NewMaintenanceService(store domain.Store, eventBus domain.EventPublisher, allowed bool, logger *zerolog.Logger) *MaintenanceService {
	return &MaintenanceService{
		store:    store,
		eventBus: eventBus,
		allowed:  allowed,
		logger:   logger,
	}
}

// ResetPayments deletes every payment the user is party to. Returns how
// many records were removed.
func (s *MaintenanceService) ResetPayments(ctx context.Context, userID string) (int64, error) {
	if !s.allowed {
		return 0, ErrMaintenanceDisabled
	}

	deleted, err := s.store.DeletePaymentsForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Warn().Str("user_id", userID).Int64("deleted", deleted).Msg("payments reset")
	s.resetEvent(ctx, userID, events.EventPaymentsReset)
	return deleted, nil
}

// ClearBalances reverts the user's approved schedule requests to pending
// and deletes their payments, in one transaction. Both totals return to
// zero together.
func (s *MaintenanceService) ClearBalances(ctx context.Context, userID string) (int64, int64, error) {
	if !s.allowed {
		return 0, 0, ErrMaintenanceDisabled
	}

	reverted, deleted, err := s.store.ClearBalances(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	s.logger.Warn().Str("user_id", userID).
		Int64("reverted", reverted).Int64("deleted", deleted).Msg("balances cleared")
	s.resetEvent(ctx, userID, events.EventBalancesCleared)
	return reverted, deleted, nil
}

func (s *MaintenanceService) resetEvent(ctx context.Context, userID, eventType string) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("load user for clear event error")
		return
	}
	payload := events.PairEventPayload{ChangedBy: userID}
	if user.Role == models.RoleEmployer {
		payload.EmployerID = userID
	} else {
		payload.NannyID = userID
	}
	recordTransition(ctx, s.store, s.eventBus, s.logger, eventType, payload)
}
