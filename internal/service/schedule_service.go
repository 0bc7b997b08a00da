package service

import (
	"context"
	"time"

	"nannylink/internal/domain"
	"nannylink/internal/events"
	"nannylink/internal/ledger"
	"nannylink/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ScheduleService handles the booking-request lifecycle. Employers create
// and edit requests, nannies approve or reject them.
type ScheduleService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewScheduleService(store domain.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *ScheduleService {
	return &ScheduleService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CreateResult reports the outcome of a multi-date create. Dates that
// failed carry their own error; successful ones are already persisted.
type CreateResult struct {
	Created []*models.ScheduleRequest
	Failed  map[string]error // keyed by YYYY-MM-DD
}

// Create books one pending request per date at the nanny's current rate.
// The rate is copied onto each request and later profile changes never
// touch it. Per-date failures do not roll back earlier dates.
func (s *ScheduleService) Create(ctx context.Context, employerID, nannyID string, dates []time.Time, startTime, endTime string) (*CreateResult, error) {
	if len(dates) == 0 {
		return nil, ErrNoDates
	}
	if _, err := ledger.Hours(startTime, endTime); err != nil {
		return nil, ErrInvalidTimeRange
	}

	employer, err := s.store.GetUser(ctx, employerID)
	if err != nil {
		return nil, err
	}
	if !employer.IsEmployer() {
		return nil, ErrNotAuthorized
	}

	linked, err := s.store.IsLinked(ctx, employerID, nannyID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, ErrNotAuthorized
	}

	nanny, err := s.store.GetUser(ctx, nannyID)
	if err != nil {
		return nil, err
	}
	rate := decimal.Zero
	if nanny.HourlyRate.Valid {
		rate = nanny.HourlyRate.Decimal
	}

	result := &CreateResult{Failed: make(map[string]error)}
	for _, date := range dates {
		req := &models.ScheduleRequest{
			ID:         uuid.NewString(),
			EmployerID: employerID,
			NannyID:    nannyID,
			Date:       date,
			StartTime:  startTime,
			EndTime:    endTime,
			Status:     models.StatusPending,
			HourlyRate: rate,
		}
		if err := s.store.CreateScheduleRequest(ctx, req); err != nil {
			s.logger.Error().Err(err).Str("date", date.Format(models.DateLayout)).Msg("create schedule request error")
			result.Failed[date.Format(models.DateLayout)] = err
			continue
		}
		result.Created = append(result.Created, req)
		s.publishRequest(ctx, events.EventScheduleCreated, req, employerID)
	}
	return result, nil
}

// SetStatus lets the nanny approve or reject a pending request. The
// version guards against a concurrent edit landing between read and write.
func (s *ScheduleService) SetStatus(ctx context.Context, requestID, nannyID, status string, version int64) error {
	if status != models.StatusApproved && status != models.StatusRejected {
		return ErrInvalidTransition
	}

	req, err := s.store.GetScheduleRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.NannyID != nannyID {
		return ErrNotAuthorized
	}
	if req.Status != models.StatusPending {
		return ErrInvalidTransition
	}

	if err := s.store.UpdateScheduleRequestStatusWithVersion(ctx, requestID, version, status); err != nil {
		return err
	}

	eventType := events.EventScheduleApproved
	if status == models.StatusRejected {
		eventType = events.EventScheduleRejected
	}
	updated, err := s.store.GetScheduleRequest(ctx, requestID)
	if err == nil {
		s.publishRequest(ctx, eventType, updated, nannyID)
	}
	return nil
}

// EditTimes changes the hours of a pending request. Only the employer who
// created it may edit, and only while it is still pending.
func (s *ScheduleService) EditTimes(ctx context.Context, requestID, employerID, startTime, endTime string, version int64) error {
	if _, err := ledger.Hours(startTime, endTime); err != nil {
		return ErrInvalidTimeRange
	}

	req, err := s.store.GetScheduleRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.EmployerID != employerID {
		return ErrNotAuthorized
	}
	if req.Status != models.StatusPending {
		return ErrInvalidTransition
	}

	if err := s.store.UpdateScheduleRequestTimes(ctx, requestID, version, startTime, endTime); err != nil {
		return err
	}

	updated, err := s.store.GetScheduleRequest(ctx, requestID)
	if err == nil {
		s.publishRequest(ctx, events.EventScheduleEdited, updated, employerID)
	}
	return nil
}

// Delete removes a request. Only the employer who created it may delete.
// An approved request that is deleted no longer contributes owed hours.
func (s *ScheduleService) Delete(ctx context.Context, requestID, employerID string) error {
	req, err := s.store.GetScheduleRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.EmployerID != employerID {
		return ErrNotAuthorized
	}

	if err := s.store.DeleteScheduleRequest(ctx, requestID); err != nil {
		return err
	}

	s.publishRequest(ctx, events.EventScheduleDeleted, req, employerID)
	return nil
}

// Get returns a single request by id.
func (s *ScheduleService) Get(ctx context.Context, requestID string) (*models.ScheduleRequest, error) {
	return s.store.GetScheduleRequest(ctx, requestID)
}

// ListForUser returns requests the user is party to, newest date first,
// optionally filtered by status ("" means all).
func (s *ScheduleService) ListForUser(ctx context.Context, userID, status string) ([]*models.ScheduleRequest, error) {
	return s.store.GetScheduleRequestsForUser(ctx, userID, status)
}

func (s *ScheduleService) publishRequest(ctx context.Context, eventType string, req *models.ScheduleRequest, changedBy string) {
	payload := events.PairEventPayload{
		EntityID:   req.ID,
		EmployerID: req.EmployerID,
		NannyID:    req.NannyID,
		Status:     req.Status,
		Rate:       req.HourlyRate.String(),
		ChangedBy:  changedBy,
	}
	if hours, err := ledger.Hours(req.StartTime, req.EndTime); err == nil {
		payload.Hours = hours.String()
		payload.Amount = hours.Mul(req.HourlyRate).String()
	}
	recordTransition(ctx, s.store, s.eventBus, s.logger, eventType, payload)
}
