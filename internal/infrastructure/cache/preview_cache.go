package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"passmais-agenda/internal/schedule"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const previewKeyPrefix = "schedule:preview:"

// PreviewCache stores the last computed weekly preview per doctor. An entry
// is only valid for the day it was computed on.
type PreviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

type cachedPreview struct {
	Today string                `json:"today"`
	Days  []schedule.PreviewDay `json:"days"`
}

func NewPreviewCache(client *redis.Client, ttl time.Duration) *PreviewCache {
	return &PreviewCache{client: client, ttl: ttl}
}

func previewKey(doctorID uuid.UUID) string {
	return previewKeyPrefix + doctorID.String()
}

// Get returns the cached preview for isoToday. A miss is (nil, false, nil).
func (c *PreviewCache) Get(ctx context.Context, doctorID uuid.UUID, isoToday string) ([]schedule.PreviewDay, bool, error) {
	raw, err := c.client.Get(ctx, previewKey(doctorID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get preview for doctor %s: %w", doctorID, err)
	}

	var cached cachedPreview
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, fmt.Errorf("decode preview for doctor %s: %w", doctorID, err)
	}
	if cached.Today != isoToday {
		return nil, false, nil
	}
	return cached.Days, true, nil
}

func (c *PreviewCache) Set(ctx context.Context, doctorID uuid.UUID, isoToday string, days []schedule.PreviewDay) error {
	raw, err := json.Marshal(cachedPreview{Today: isoToday, Days: days})
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, previewKey(doctorID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set preview for doctor %s: %w", doctorID, err)
	}
	return nil
}

func (c *PreviewCache) Invalidate(ctx context.Context, doctorID uuid.UUID) error {
	if err := c.client.Del(ctx, previewKey(doctorID)).Err(); err != nil {
		return fmt.Errorf("invalidate preview for doctor %s: %w", doctorID, err)
	}
	return nil
}
