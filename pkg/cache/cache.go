// Package cache holds rendered layout responses for the lifetime of the
// process, keyed by a hash of the request.
package cache

import (
	"context"
	"time"
)

// Cache stores byte payloads under string keys.
type Cache interface {
	// Get returns the value for key and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}
