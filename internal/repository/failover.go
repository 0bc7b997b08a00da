package repository

import (
	"context"
	"sync/atomic"
	"time"

	"nannylink/internal/domain"
	"nannylink/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSummaryCache serves from the primary cache until it fails, then
// trips to the fallback and probes the primary again after a cooldown.
type FailoverSummaryCache struct {
	primary   domain.SummaryCache
	fallback  domain.SummaryCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverSummaryCache(primary, fallback domain.SummaryCache, logger *zerolog.Logger) *FailoverSummaryCache {
	return &FailoverSummaryCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSummaryCache) Get(ctx context.Context, userID string) (*models.Summary, error) {
	if !r.isDown.Load() {
		summary, err := r.primary.Get(ctx, userID)
		if err == nil {
			return summary, nil
		}
		r.logger.Error().Err(err).Msg("Primary summary cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		summary, err := r.primary.Get(ctx, userID)
		if err == nil {
			r.isDown.Store(false)
			return summary, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.Get(ctx, userID)
}

func (r *FailoverSummaryCache) Set(ctx context.Context, summary *models.Summary) error {
	if !r.isDown.Load() {
		err := r.primary.Set(ctx, summary)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary summary cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.Set(ctx, summary)
}

func (r *FailoverSummaryCache) Invalidate(ctx context.Context, userID string) error {
	if !r.isDown.Load() {
		err := r.primary.Invalidate(ctx, userID)
		if err == nil {
			// Keep both sides clear so a later failover cannot resurrect
			// a stale summary.
			return r.fallback.Invalidate(ctx, userID)
		}
		r.logger.Error().Err(err).Msg("Primary summary cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.Invalidate(ctx, userID)
}
