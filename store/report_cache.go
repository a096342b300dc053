package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gemstore/api/models"
)

const reportKeyPrefix = "gemstore:report:"

// ReportCache keeps recently built dashboard reports in Redis so repeated
// dashboard loads inside the TTL skip the event scan.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// ReportKey identifies a report by mode and window at second resolution.
func ReportKey(mode models.Mode, start, end time.Time) string {
	return fmt.Sprintf("%s%s:%d:%d", reportKeyPrefix, mode, start.Unix(), end.Unix())
}

// Get returns the cached report for key. A miss is (nil, false, nil).
func (c *ReportCache) Get(ctx context.Context, key string) (*models.MetricsReport, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached report: %w", err)
	}

	var report models.MetricsReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached report: %w", err)
	}
	return &report, true, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, report *models.MetricsReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}
