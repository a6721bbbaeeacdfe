package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = time.Hour

// DedupChecker provides signup idempotency checks backed by Redis.
// Key format: signup:<role>:<idempotency_key>
type DedupChecker struct {
	client *redis.Client
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client}
}

// IsDuplicate reports whether a signup with this idempotency key was already
// accepted.
func (d *DedupChecker) IsDuplicate(ctx context.Context, role, key string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(role, key)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this signup has been accepted (expires after dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, role, key string) error {
	return d.client.Set(ctx, d.key(role, key), "1", dedupTTL).Err()
}

func (d *DedupChecker) key(role, key string) string {
	return fmt.Sprintf("signup:%s:%s", role, key)
}
