package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = time.Hour

// DedupChecker remembers processed carrier scans.
// Key format: dedup:<waybill>:<status>:<unix_timestamp>
type DedupChecker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupChecker creates a DedupChecker. A non-positive ttl falls back to one hour.
func NewDedupChecker(client *redis.Client, ttl time.Duration) *DedupChecker {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &DedupChecker{client: client, ttl: ttl}
}

// IsDuplicate reports whether this exact scan has already been applied.
func (d *DedupChecker) IsDuplicate(ctx context.Context, waybill, status string, ts time.Time) (bool, error) {
	n, err := d.client.Exists(ctx, dedupKey(waybill, status, ts)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this scan has been applied.
func (d *DedupChecker) Mark(ctx context.Context, waybill, status string, ts time.Time) error {
	return d.client.Set(ctx, dedupKey(waybill, status, ts), "1", d.ttl).Err()
}

func dedupKey(waybill, status string, ts time.Time) string {
	return fmt.Sprintf("dedup:%s:%s:%d", waybill, status, ts.Unix())
}
