package analysis

import (
	"context"
	"time"

	"github.com/xeptore/djmix/cache"
	"github.com/xeptore/djmix/track"
)

// Cached memoizes a provider's successful results by track ID. Failures are
// not cached.
type Cached struct {
	next  Provider
	cache *cache.AnalysesCache
	ttl   time.Duration
}

func NewCached(next Provider, c *cache.Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = cache.DefaultAnalysisTTL
	}
	return &Cached{next: next, cache: &c.Analyses, ttl: ttl}
}

func (c *Cached) Analysis(ctx context.Context, t track.Track) (*track.Analysis, error) {
	if a, ok := c.cache.Peek(t.ID); ok {
		return a, nil
	}
	return c.cache.Fetch(t.ID, c.ttl, func() (*track.Analysis, error) { return c.next.Analysis(ctx, t) })
}
