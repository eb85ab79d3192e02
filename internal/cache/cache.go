// Package cache provides the in-process caches used for prepared datasets.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is the subset of LRU used by callers that only read and write.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Purge()
	Size() int
}

var _ Cache[int] = (*LRU[int])(nil)

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically cleans expired entries from registered caches.
type Janitor struct {
	caches   []Cleaner
	interval time.Duration
}

func NewJanitor(interval time.Duration, caches ...Cleaner) *Janitor {
	return &Janitor{caches: caches, interval: interval}
}

// Run cleans every interval until ctx is done. It returns ctx.Err().
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				slog.DebugContext(ctx, "Expired cache entries removed", "count", n)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Sweep cleans every cache once and returns the number of entries removed.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}
