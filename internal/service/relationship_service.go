package service

import (
	"context"
	"fmt"

	"nannylink/internal/domain"
	"nannylink/internal/events"
	"nannylink/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RelationshipService manages the employer/nanny pairing lifecycle.
// Proposals are employer-initiated; the nanny accepts or rejects.
type RelationshipService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewRelationshipService(store domain.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *RelationshipService {
	return &RelationshipService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Propose creates a pending link request from an employer to a nanny and
// notifies the nanny. An existing row for the pair makes this a no-op.
func (s *RelationshipService) Propose(ctx context.Context, employerID, nannyID string) error {
	employer, err := s.store.GetUser(ctx, employerID)
	if err != nil {
		return err
	}
	if !employer.IsEmployer() {
		return ErrRoleMismatch
	}
	nanny, err := s.store.GetUser(ctx, nannyID)
	if err != nil {
		return err
	}
	if !nanny.IsNanny() {
		return ErrRoleMismatch
	}

	created, err := s.store.ProposeLink(ctx, employerID, nannyID)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	notification := &models.Notification{
		ID:         uuid.NewString(),
		Type:       models.NotificationLinkRequest,
		FromUserID: employerID,
		ToUserID:   nannyID,
		Status:     models.NotificationUnread,
		Message:    fmt.Sprintf("%s wants to link with you", employer.DisplayName),
	}
	if err := s.store.CreateNotification(ctx, notification); err != nil {
		s.logger.Error().Err(err).Str("nanny_id", nannyID).Msg("create link notification error")
	}

	recordTransition(ctx, s.store, s.eventBus, s.logger, events.EventLinkProposed, events.PairEventPayload{
		EmployerID: employerID,
		NannyID:    nannyID,
		Status:     models.RelationshipProposed,
		ChangedBy:  employerID,
	})
	return nil
}

// Accept transitions the pair to linked. Only the nanny on the proposed
// row may accept; the acceptance notification commits with the link.
func (s *RelationshipService) Accept(ctx context.Context, nannyID, employerID string) error {
	nanny, err := s.store.GetUser(ctx, nannyID)
	if err != nil {
		return err
	}
	if !nanny.IsNanny() {
		return ErrNotAuthorized
	}

	notification := &models.Notification{
		ID:         uuid.NewString(),
		Type:       models.NotificationLinkAccepted,
		FromUserID: nannyID,
		ToUserID:   employerID,
		Status:     models.NotificationUnread,
		Message:    fmt.Sprintf("%s accepted your link request", nanny.DisplayName),
	}
	if err := s.store.AcceptLink(ctx, employerID, nannyID, notification); err != nil {
		return err
	}

	recordTransition(ctx, s.store, s.eventBus, s.logger, events.EventLinkAccepted, events.PairEventPayload{
		EmployerID: employerID,
		NannyID:    nannyID,
		Status:     models.RelationshipLinked,
		ChangedBy:  nannyID,
	})
	return nil
}

// Reject removes the proposed row. Nothing persists, so the employer may
// propose again later.
func (s *RelationshipService) Reject(ctx context.Context, nannyID, employerID string) error {
	nanny, err := s.store.GetUser(ctx, nannyID)
	if err != nil {
		return err
	}
	if !nanny.IsNanny() {
		return ErrNotAuthorized
	}

	if err := s.store.RejectLink(ctx, employerID, nannyID); err != nil {
		return err
	}

	notification := &models.Notification{
		ID:         uuid.NewString(),
		Type:       models.NotificationLinkRejected,
		FromUserID: nannyID,
		ToUserID:   employerID,
		Status:     models.NotificationUnread,
		Message:    fmt.Sprintf("%s declined your link request", nanny.DisplayName),
	}
	if err := s.store.CreateNotification(ctx, notification); err != nil {
		s.logger.Error().Err(err).Str("employer_id", employerID).Msg("create reject notification error")
	}

	recordTransition(ctx, s.store, s.eventBus, s.logger, events.EventLinkRejected, events.PairEventPayload{
		EmployerID: employerID,
		NannyID:    nannyID,
		ChangedBy:  nannyID,
	})
	return nil
}

// Unlink removes an established link. Either party may do it.
func (s *RelationshipService) Unlink(ctx context.Context, callerID, employerID, nannyID string) error {
	if callerID != employerID && callerID != nannyID {
		return ErrNotAuthorized
	}

	if err := s.store.Unlink(ctx, employerID, nannyID); err != nil {
		return err
	}

	recordTransition(ctx, s.store, s.eventBus, s.logger, events.EventLinkRemoved, events.PairEventPayload{
		EmployerID: employerID,
		NannyID:    nannyID,
		ChangedBy:  callerID,
	})
	return nil
}

// ResetAll removes every relationship the user is party to, proposed or
// linked, in one transaction. Returns how many rows were removed.
func (s *RelationshipService) ResetAll(ctx context.Context, userID string) (int64, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	removed, err := s.store.ResetLinks(ctx, userID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		payload := events.PairEventPayload{ChangedBy: userID}
		if user.IsEmployer() {
			payload.EmployerID = userID
		} else {
			payload.NannyID = userID
		}
		recordTransition(ctx, s.store, s.eventBus, s.logger, events.EventLinksReset, payload)
	}
	return removed, nil
}

// Search finds users of the opposite role matching term, excluding anyone
// the caller already has a relationship row with.
func (s *RelationshipService) Search(ctx context.Context, callerID, term string) ([]*models.User, error) {
	caller, err := s.store.GetUser(ctx, callerID)
	if err != nil {
		return nil, err
	}

	role := models.RoleNanny
	if caller.IsNanny() {
		role = models.RoleEmployer
	}
	return s.store.SearchUsers(ctx, role, term, callerID, models.DefaultSearchLimit)
}

// ListForUser returns the relationship rows the user is party to,
// optionally filtered by status.
func (s *RelationshipService) ListForUser(ctx context.Context, userID, status string) ([]*models.Relationship, error) {
	return s.store.GetRelationshipsForUser(ctx, userID, status)
}
