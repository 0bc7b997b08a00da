package repository

import (
	"context"
	"sync"
	"time"

	"nannylink/internal/models"
)

type MemorySummaryCache struct {
	summaries sync.Map
	ttl       time.Duration
}

type memoryEntry struct {
	summary   *models.Summary
	expiresAt time.Time
}

func NewMemorySummaryCache(ttl time.Duration) *MemorySummaryCache {
	return &MemorySummaryCache{
		ttl: ttl,
	}
}

func (r *MemorySummaryCache) Get(ctx context.Context, userID string) (*models.Summary, error) {
	val, ok := r.summaries.Load(userID)
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.summaries.Delete(userID)
		return nil, nil
	}
	return entry.summary, nil
}

func (r *MemorySummaryCache) Set(ctx context.Context, summary *models.Summary) error {
	r.summaries.Store(summary.UserID, &memoryEntry{
		summary:   summary,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemorySummaryCache) Invalidate(ctx context.Context, userID string) error {
	r.summaries.Delete(userID)
	return nil
}
