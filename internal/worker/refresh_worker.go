package worker

import (
	"context"
	"time"

	"nannylink/internal/metrics"
	"nannylink/internal/models"

	"github.com/rs/zerolog"
)

// changeQueue is the slice of the store the worker needs.
type changeQueue interface {
	GetPendingChanges(ctx context.Context, limit int) ([]models.ChangeRecord, error)
	UpdateChangeStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// refresher recomputes and re-caches one user's summary.
type refresher interface {
	Refresh(ctx context.Context, userID string) (*models.Summary, error)
}

// RefreshWorker drains pending change log rows and recomputes the cached
// summaries of both parties named on each row. A row is marked processed
// only after every named party was refreshed; transient failures go back
// on the retry schedule.
type RefreshWorker struct {
	queue        changeQueue
	ledger       refresher
	retryPolicy  RetryPolicy
	pollInterval time.Duration
	batchSize    int
	logger       *zerolog.Logger
}

// NewRefreshWorker builds a worker with sane defaults.
func NewRefreshWorker(queue changeQueue, ledger refresher, retry RetryPolicy, batchSize int, logger *zerolog.Logger) *RefreshWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if batchSize <= 0 {
		batchSize = models.WorkerBatchSize
	}

	return &RefreshWorker{
		queue:        queue,
		ledger:       ledger,
		retryPolicy:  retry,
		pollInterval: 2 * time.Second,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// Start launches the main loop; stops when ctx is done.
func (w *RefreshWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("refresh worker started")
	defer w.logger.Info().Msg("refresh worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := w.ProcessPending(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending changes error")
		}
		if n == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.pollInterval):
			}
		}
	}
}

// ProcessPending drains one batch and returns how many rows it handled.
func (w *RefreshWorker) ProcessPending(ctx context.Context) (int, error) {
	records, err := w.queue.GetPendingChanges(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	for i := range records {
		w.processRecord(ctx, &records[i])
	}
	return len(records), nil
}

func (w *RefreshWorker) processRecord(ctx context.Context, rec *models.ChangeRecord) {
	for _, userID := range []string{rec.EmployerID, rec.NannyID} {
		if userID == "" {
			continue
		}
		if _, err := w.ledger.Refresh(ctx, userID); err != nil {
			w.retryOrFail(ctx, rec, err)
			return
		}
		metrics.IncSummaryRefresh()
	}

	if err := w.queue.UpdateChangeStatus(ctx, rec.ID, "processed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("change_id", rec.ID).Msg("mark processed error")
	}
}

func (w *RefreshWorker) retryOrFail(ctx context.Context, rec *models.ChangeRecord, cause error) {
	attempt := rec.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.logger.Error().Err(cause).Int64("change_id", rec.ID).Msg("refresh failed permanently")
		if err := w.queue.UpdateChangeStatus(ctx, rec.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("change_id", rec.ID).Msg("mark failed error")
		}
		return
	}

	next := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	w.logger.Warn().Err(cause).Int64("change_id", rec.ID).Int("attempt", attempt).
		Time("next_retry_at", next).Msg("refresh retry scheduled")
	if err := w.queue.UpdateChangeStatus(ctx, rec.ID, "retry", cause.Error(), &next); err != nil {
		w.logger.Error().Err(err).Int64("change_id", rec.ID).Msg("schedule retry error")
	}
}
