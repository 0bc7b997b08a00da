package ledger

import (
	"context"
	"errors"
	"io"
	"testing"

	"nannylink/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

type stubReader struct {
	requests []*models.ScheduleRequest
	payments []*models.Payment
	err      error
}

func (s *stubReader) GetScheduleRequestsForUser(ctx context.Context, userID, status string) ([]*models.ScheduleRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*models.ScheduleRequest
	for _, req := range s.requests {
		if status == "" || req.Status == status {
			out = append(out, req)
		}
	}
	return out, nil
}

func (s *stubReader) GetPaymentsForUser(ctx context.Context, userID, status string) ([]*models.Payment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.payments, nil
}

func TestHours(t *testing.T) {
	tests := []struct {
		start, end string
		want       string
	}{
		{"09:00", "17:00", "8"},
		{"09:00", "13:00", "4"},
		{"09:30", "10:00", "0.5"},
		{"08:00", "08:45", "0.75"},
	}
	for _, tt := range tests {
		got, err := Hours(tt.start, tt.end)
		require.NoError(t, err)
		want, _ := decimal.NewFromString(tt.want)
		assert.True(t, got.Equal(want), "Hours(%s, %s) = %s, want %s", tt.start, tt.end, got, tt.want)
	}
}

func TestHoursInvalid(t *testing.T) {
	_, err := Hours("17:00", "09:00")
	assert.Error(t, err)

	_, err = Hours("09:00", "09:00")
	assert.Error(t, err)

	_, err = Hours("not-a-time", "09:00")
	assert.Error(t, err)
}

func TestAmountUsesRateSnapshot(t *testing.T) {
	req := &models.ScheduleRequest{
		StartTime:  "09:00",
		EndTime:    "13:00",
		HourlyRate: decimal.NewFromInt(20),
	}
	amount, err := Amount(req)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(80)))
}

func TestSummarize(t *testing.T) {
	store := &stubReader{
		requests: []*models.ScheduleRequest{
			{ID: "r1", Status: models.StatusApproved, StartTime: "09:00", EndTime: "17:00", HourlyRate: decimal.NewFromInt(20)},
			{ID: "r2", Status: models.StatusApproved, StartTime: "10:00", EndTime: "12:00", HourlyRate: decimal.NewFromInt(25)},
			{ID: "r3", Status: models.StatusPending, StartTime: "09:00", EndTime: "17:00", HourlyRate: decimal.NewFromInt(20)},
		},
		payments: []*models.Payment{
			{ID: "p1", Status: models.PaymentStatusConfirmed, Amount: decimal.NewFromInt(100)},
			{ID: "p2", Status: models.PaymentStatusPending, Amount: decimal.NewFromInt(40)},
			{ID: "p3", Status: models.PaymentStatusRejected, Amount: decimal.NewFromInt(999)},
		},
	}

	summary, err := New(store, testLogger()).Summarize(context.Background(), "n1")
	require.NoError(t, err)

	// 8h*20 + 2h*25 = 210 owed; pending request excluded.
	assert.True(t, summary.TotalOwed.Equal(decimal.NewFromInt(210)), "owed = %s", summary.TotalOwed)
	assert.True(t, summary.TotalPaid.Equal(decimal.NewFromInt(100)))
	assert.True(t, summary.PendingPaid.Equal(decimal.NewFromInt(40)))
	assert.True(t, summary.RemainingBalance.Equal(decimal.NewFromInt(110)))
}

func TestSummarizeThreeDaysProperty(t *testing.T) {
	rate := decimal.NewFromInt(18)
	store := &stubReader{}
	for _, id := range []string{"d1", "d2", "d3"} {
		store.requests = append(store.requests, &models.ScheduleRequest{
			ID: id, Status: models.StatusApproved,
			StartTime: "09:00", EndTime: "17:00", HourlyRate: rate,
		})
	}

	summary, err := New(store, testLogger()).Summarize(context.Background(), "n1")
	require.NoError(t, err)

	want := decimal.NewFromInt(3 * 8).Mul(rate)
	assert.True(t, summary.TotalOwed.Equal(want), "owed = %s, want %s", summary.TotalOwed, want)
}

func TestSummarizeStoreErrorPropagates(t *testing.T) {
	store := &stubReader{err: errors.New("disk gone")}

	_, err := New(store, testLogger()).Summarize(context.Background(), "n1")
	assert.Error(t, err)
}

func TestSummarizeUnpriceableRequestFails(t *testing.T) {
	store := &stubReader{
		requests: []*models.ScheduleRequest{
			{ID: "bad", Status: models.StatusApproved, StartTime: "17:00", EndTime: "09:00", HourlyRate: decimal.NewFromInt(20)},
		},
	}

	_, err := New(store, testLogger()).Summarize(context.Background(), "n1")
	assert.Error(t, err)
}

type stubCache struct {
	entries map[string]*models.Summary
	sets    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*models.Summary)}
}

func (c *stubCache) Get(ctx context.Context, userID string) (*models.Summary, error) {
	return c.entries[userID], nil
}

func (c *stubCache) Set(ctx context.Context, summary *models.Summary) error {
	c.sets++
	c.entries[summary.UserID] = summary
	return nil
}

func (c *stubCache) Invalidate(ctx context.Context, userID string) error {
	delete(c.entries, userID)
	return nil
}

func TestCachedLedgerSummarize(t *testing.T) {
	store := &stubReader{
		payments: []*models.Payment{
			{ID: "p1", Status: models.PaymentStatusConfirmed, Amount: decimal.NewFromInt(30)},
		},
	}
	cache := newStubCache()
	cached := NewCached(New(store, testLogger()), cache, testLogger())

	first, err := cached.Summarize(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// Second call is served from cache; mutating the store shows no effect.
	store.payments = nil
	second, err := cached.Summarize(context.Background(), "n1")
	require.NoError(t, err)
	assert.True(t, second.TotalPaid.Equal(first.TotalPaid))
	assert.Equal(t, 1, cache.sets)
}

func TestCachedLedgerRefreshBypassesCache(t *testing.T) {
	store := &stubReader{
		payments: []*models.Payment{
			{ID: "p1", Status: models.PaymentStatusConfirmed, Amount: decimal.NewFromInt(30)},
		},
	}
	cache := newStubCache()
	cached := NewCached(New(store, testLogger()), cache, testLogger())

	_, err := cached.Summarize(context.Background(), "n1")
	require.NoError(t, err)

	store.payments = append(store.payments,
		&models.Payment{ID: "p2", Status: models.PaymentStatusConfirmed, Amount: decimal.NewFromInt(50)})

	refreshed, err := cached.Refresh(context.Background(), "n1")
	require.NoError(t, err)
	assert.True(t, refreshed.TotalPaid.Equal(decimal.NewFromInt(80)))

	// The recomputed summary replaced the cached one.
	after, err := cached.Summarize(context.Background(), "n1")
	require.NoError(t, err)
	assert.True(t, after.TotalPaid.Equal(decimal.NewFromInt(80)))
}
