package ledger

import (
	"context"
	"fmt"
	"time"

	"nannylink/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var sixty = decimal.NewFromInt(60)

// Hours returns the fractional-hour duration between two same-day
// wall-clock times. End must be strictly after start; cross-midnight
// spans are a data error here, never a negative duration.
func Hours(startTime, endTime string) (decimal.Decimal, error) {
	start, err := time.Parse(models.TimeLayout, startTime)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid start time %q: %w", startTime, err)
	}
	end, err := time.Parse(models.TimeLayout, endTime)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid end time %q: %w", endTime, err)
	}

	minutes := int64(end.Sub(start).Minutes())
	if minutes <= 0 {
		return decimal.Zero, fmt.Errorf("end time %s is not after start time %s", endTime, startTime)
	}

	return decimal.NewFromInt(minutes).Div(sixty), nil
}

// Amount is hours times the rate snapshot of the schedule request. The
// snapshot is authoritative: later profile rate changes never move totals
// of already-created requests.
func Amount(req *models.ScheduleRequest) (decimal.Decimal, error) {
	hours, err := Hours(req.StartTime, req.EndTime)
	if err != nil {
		return decimal.Zero, err
	}
	return hours.Mul(req.HourlyRate), nil
}

// reader is the slice of the store the ledger needs.
type reader interface {
	GetScheduleRequestsForUser(ctx context.Context, userID, status string) ([]*models.ScheduleRequest, error)
	GetPaymentsForUser(ctx context.Context, userID, status string) ([]*models.Payment, error)
}

type Ledger struct {
	store  reader
	logger *zerolog.Logger
}

func New(store reader, logger *zerolog.Logger) *Ledger {
	return &Ledger{store: store, logger: logger}
}

// Summarize recomputes the derived totals for a user from approved
// schedule requests and payment records. A failed sub-query fails the
// whole summary: an unknown balance must never be reported as zero.
func (l *Ledger) Summarize(ctx context.Context, userID string) (*models.Summary, error) {
	approved, err := l.store.GetScheduleRequestsForUser(ctx, userID, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("summarize: schedule query failed: %w", err)
	}

	payments, err := l.store.GetPaymentsForUser(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("summarize: payment query failed: %w", err)
	}

	totalOwed := decimal.Zero
	for _, req := range approved {
		amount, err := Amount(req)
		if err != nil {
			// A stored request that cannot be priced poisons the whole
			// total; surface it instead of skipping the row.
			return nil, fmt.Errorf("summarize: request %s: %w", req.ID, err)
		}
		totalOwed = totalOwed.Add(amount)
	}

	totalPaid := decimal.Zero
	pendingPaid := decimal.Zero
	for _, p := range payments {
		switch p.Status {
		case models.PaymentStatusConfirmed:
			totalPaid = totalPaid.Add(p.Amount)
		case models.PaymentStatusPending:
			pendingPaid = pendingPaid.Add(p.Amount)
		}
	}

	return &models.Summary{
		UserID:           userID,
		TotalOwed:        totalOwed,
		TotalPaid:        totalPaid,
		PendingPaid:      pendingPaid,
		RemainingBalance: totalOwed.Sub(totalPaid),
		ComputedAt:       time.Now(),
	}, nil
}

// CachedLedger fronts a Ledger with a summary cache. Misses recompute.
type CachedLedger struct {
	ledger *Ledger
	cache  cache
	logger *zerolog.Logger
}

type cache interface {
	Get(ctx context.Context, userID string) (*models.Summary, error)
	Set(ctx context.Context, summary *models.Summary) error
	Invalidate(ctx context.Context, userID string) error
}

func NewCached(ledger *Ledger, c cache, logger *zerolog.Logger) *CachedLedger {
	return &CachedLedger{ledger: ledger, cache: c, logger: logger}
}

func (c *CachedLedger) Summarize(ctx context.Context, userID string) (*models.Summary, error) {
	if cached, err := c.cache.Get(ctx, userID); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("summary cache read failed")
	}

	summary, err := c.ledger.Summarize(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, summary); err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("summary cache write failed")
	}
	return summary, nil
}

// Refresh recomputes and stores the summary unconditionally.
func (c *CachedLedger) Refresh(ctx context.Context, userID string) (*models.Summary, error) {
	summary, err := c.ledger.Summarize(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, summary); err != nil {
		return nil, fmt.Errorf("refresh: cache write failed: %w", err)
	}
	return summary, nil
}
