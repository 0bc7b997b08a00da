package service

import (
	"context"
	"time"

	"nannylink/internal/domain"
	"nannylink/internal/events"
	"nannylink/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PaymentService tracks manually recorded transfers. Employers record and
// delete payments, nannies confirm or reject them. Only confirmed
// payments count toward the paid total.
type PaymentService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewPaymentService(store domain.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *PaymentService {
	return &PaymentService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Record creates a pending payment from a linked employer to a nanny.
// Display names are copied onto the record so later renames do not
// rewrite history.
func (s *PaymentService) Record(ctx context.Context, employerID, nannyID string, amount decimal.Decimal, date time.Time, method, note string) (*models.Payment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if method != models.MethodCash && method != models.MethodBankTransfer {
		return nil, ErrInvalidTransition
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

	payment := &models.Payment{
		ID:           uuid.NewString(),
		EmployerID:   employerID,
		NannyID:      nannyID,
		Amount:       amount,
		Date:         date,
		Status:       models.PaymentStatusPending,
		Method:       method,
		Note:         note,
		EmployerName: employer.DisplayName,
		NannyName:    nanny.DisplayName,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.publishPayment(ctx, events.EventPaymentRecorded, payment, employerID)
	return payment, nil
}

// Confirm marks a pending payment as received by the nanny.
func (s *PaymentService) Confirm(ctx context.Context, paymentID, nannyID string, version int64) error {
	return s.transition(ctx, paymentID, nannyID, models.PaymentStatusConfirmed, version)
}

// Reject disputes a pending payment. The record stays for the audit trail
// but never counts toward the paid total.
func (s *PaymentService) Reject(ctx context.Context, paymentID, nannyID string, version int64) error {
	return s.transition(ctx, paymentID, nannyID, models.PaymentStatusRejected, version)
}

func (s *PaymentService) transition(ctx context.Context, paymentID, nannyID, status string, version int64) error {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment.NannyID != nannyID {
		return ErrNotAuthorized
	}
	if payment.Status != models.PaymentStatusPending {
		return ErrInvalidTransition
	}

	if err := s.store.UpdatePaymentStatusWithVersion(ctx, paymentID, version, status); err != nil {
		return err
	}

	eventType := events.EventPaymentConfirmed
	if status == models.PaymentStatusRejected {
		eventType = events.EventPaymentRejected
	}
	updated, err := s.store.GetPayment(ctx, paymentID)
	if err == nil {
		s.publishPayment(ctx, eventType, updated, nannyID)
	}
	return nil
}

// Delete removes a payment record. Only the employer who recorded it may
// delete; a confirmed payment removed this way stops counting as paid.
func (s *PaymentService) Delete(ctx context.Context, paymentID, employerID string) error {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment.EmployerID != employerID {
		return ErrNotAuthorized
	}

	if err := s.store.DeletePayment(ctx, paymentID); err != nil {
		return err
	}

	s.publishPayment(ctx, events.EventPaymentDeleted, payment, employerID)
	return nil
}

// Get returns a single payment by id.
func (s *PaymentService) Get(ctx context.Context, paymentID string) (*models.Payment, error) {
	return s.store.GetPayment(ctx, paymentID)
}

// ListForUser returns payments the user is party to, newest date first,
// optionally filtered by status ("" means all).
func (s *PaymentService) ListForUser(ctx context.Context, userID, status string) ([]*models.Payment, error) {
	return s.store.GetPaymentsForUser(ctx, userID, status)
}

func (s *PaymentService) publishPayment(ctx context.Context, eventType string, payment *models.Payment, changedBy string) {
	recordTransition(ctx, s.store, s.eventBus, s.logger, eventType, events.PairEventPayload{
		EntityID:   payment.ID,
		EmployerID: payment.EmployerID,
		NannyID:    payment.NannyID,
		Status:     payment.Status,
		Amount:     payment.Amount.String(),
		ChangedBy:  changedBy,
	})
}
