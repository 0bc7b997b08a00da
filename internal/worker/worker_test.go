package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"nannylink/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	// Clamped at MaxDelay.
	assert.Equal(t, 10*time.Second, p.NextDelay(10))
	// Attempt below 1 behaves like the first attempt.
	assert.Equal(t, time.Second, p.NextDelay(0))
}

func TestRetryPolicyDefaults(t *testing.T) {
	p := RetryPolicy{}
	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
}

type fakeQueue struct {
	mu       sync.Mutex
	pending  []models.ChangeRecord
	statuses map[int64]string
	retries  map[int64]*time.Time
}

func newFakeQueue(records ...models.ChangeRecord) *fakeQueue {
	return &fakeQueue{
		pending:  records,
		statuses: make(map[int64]string),
		retries:  make(map[int64]*time.Time),
	}
}

func (q *fakeQueue) GetPendingChanges(ctx context.Context, limit int) ([]models.ChangeRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out, nil
}

func (q *fakeQueue) UpdateChangeStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.statuses[id] = status
	q.retries[id] = nextRetryAt
	return nil
}

type fakeRefresher struct {
	mu        sync.Mutex
	refreshed []string
	failFor   map[string]error
}

func (f *fakeRefresher) Refresh(ctx context.Context, userID string) (*models.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[userID]; ok {
		return nil, err
	}
	f.refreshed = append(f.refreshed, userID)
	return &models.Summary{UserID: userID}, nil
}

func testWorkerLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func TestProcessPendingRefreshesBothParties(t *testing.T) {
	queue := newFakeQueue(models.ChangeRecord{ID: 1, EventType: "payment_confirmed", EmployerID: "e1", NannyID: "n1"})
	refresher := &fakeRefresher{}
	w := NewRefreshWorker(queue, refresher, RetryPolicy{}, 10, testWorkerLogger())

	n, err := w.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"e1", "n1"}, refresher.refreshed)
	assert.Equal(t, "processed", queue.statuses[1])
}

func TestProcessPendingSkipsEmptyParty(t *testing.T) {
	queue := newFakeQueue(models.ChangeRecord{ID: 1, EventType: "links_reset", EmployerID: "e1"})
	refresher := &fakeRefresher{}
	w := NewRefreshWorker(queue, refresher, RetryPolicy{}, 10, testWorkerLogger())

	_, err := w.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, refresher.refreshed)
}

func TestProcessPendingSchedulesRetry(t *testing.T) {
	queue := newFakeQueue(models.ChangeRecord{ID: 1, EventType: "payment_confirmed", EmployerID: "e1", NannyID: "n1"})
	refresher := &fakeRefresher{failFor: map[string]error{"e1": errors.New("db locked")}}
	w := NewRefreshWorker(queue, refresher, RetryPolicy{MaxRetries: 5}, 10, testWorkerLogger())

	_, err := w.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "retry", queue.statuses[1])
	require.NotNil(t, queue.retries[1])
	assert.True(t, queue.retries[1].After(time.Now()))
}

func TestProcessPendingFailsAfterMaxRetries(t *testing.T) {
	queue := newFakeQueue(models.ChangeRecord{ID: 1, EventType: "payment_confirmed", EmployerID: "e1", RetryCount: 4})
	refresher := &fakeRefresher{failFor: map[string]error{"e1": errors.New("db locked")}}
	w := NewRefreshWorker(queue, refresher, RetryPolicy{MaxRetries: 5}, 10, testWorkerLogger())

	_, err := w.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "failed", queue.statuses[1])
}

func TestStartStopsOnContextCancel(t *testing.T) {
	queue := newFakeQueue()
	refresher := &fakeRefresher{}
	w := NewRefreshWorker(queue, refresher, RetryPolicy{}, 10, testWorkerLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
