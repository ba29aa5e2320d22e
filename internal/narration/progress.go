package narration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/pdf2speech/internal/cache"
	"github.com/nikhilbhutani/pdf2speech/internal/models"
)

const progressTTL = 24 * time.Hour

// ProgressTracker keeps the live page count of running narrations in Redis.
type ProgressTracker struct {
	cache *cache.Cache
}

func NewProgressTracker(c *cache.Cache) *ProgressTracker {
	return &ProgressTracker{cache: c}
}

func progressKey(id uuid.UUID) string {
	return fmt.Sprintf("narration:%s:progress", id)
}

func (t *ProgressTracker) Record(ctx context.Context, id uuid.UUID, p models.Progress) error {
	return t.cache.Set(ctx, progressKey(id), p, progressTTL)
}

// Get returns the last recorded progress. ok is false when nothing was recorded.
func (t *ProgressTracker) Get(ctx context.Context, id uuid.UUID) (p models.Progress, ok bool, err error) {
	err = t.cache.Get(ctx, progressKey(id), &p)
	if errors.Is(err, cache.ErrMiss) {
		return models.Progress{}, false, nil
	}
	if err != nil {
		return models.Progress{}, false, err
	}
	return p, true, nil
}
