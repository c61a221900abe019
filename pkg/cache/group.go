package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader wraps a Cache so that concurrent misses for one key run the
// compute function once.
type Loader struct {
	cache Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewLoader creates a loader storing computed values for ttl.
func NewLoader(c Cache, ttl time.Duration) *Loader {
	if c == nil {
		c = NewNullCache()
	}
	return &Loader{cache: c, ttl: ttl}
}

// Load returns the cached value for key, or computes and stores it. The
// second result reports a cache hit. Errors from fn are returned and not
// cached; cache read and write errors fall back to fn.
func (l *Loader) Load(ctx context.Context, key string, fn func() ([]byte, error)) ([]byte, bool, error) {
	if data, ok, err := l.cache.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}
	v, err, _ := l.group.Do(key, func() (any, error) {
		data, err := fn()
		if err != nil {
			return nil, err
		}
		_ = l.cache.Set(ctx, key, data, l.ttl)
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}
