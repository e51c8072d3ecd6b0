// Package cache defines the port interface for key-value caching. The main
// consumer is the plan-version read path, where entries are immutable and a
// hit avoids a round trip to Postgres.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching. A ttl of 0 means no
// expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
