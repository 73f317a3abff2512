package cache

import (
	"time"

	"github.com/karlseguin/ccache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/xeptore/djmix/track"
)

var (
	DefaultAnalysisTTL     = 1 * time.Hour
	DefaultAnalysisMaxSize = int64(1000)
)

type Cache struct {
	Analyses AnalysesCache
}

// New creates the analysis cache. Non-positive maxSize falls back to
// DefaultAnalysisMaxSize.
func New(maxSize int64) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultAnalysisMaxSize
	}

	analysesCache := ccache.New(
		ccache.Configure[*track.Analysis]().
			MaxSize(maxSize).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	return &Cache{
		Analyses: AnalysesCache{
			c:       analysesCache,
			flights: singleflight.Group{},
		},
	}
}

// AnalysesCache is keyed by track ID. Concurrent misses for one track share
// a single fetch; misses for different tracks run in parallel.
type AnalysesCache struct {
	c       *ccache.Cache[*track.Analysis]
	flights singleflight.Group
}

// Fetch returns the cached analysis for trackID or stores the result of
// fetch. Callers joining an in-flight fetch get its result, error included.
func (c *AnalysesCache) Fetch(trackID string, ttl time.Duration, fetch func() (*track.Analysis, error)) (*track.Analysis, error) {
	v, err, _ := c.flights.Do(trackID, func() (any, error) {
		item, err := c.c.Fetch(trackID, ttl, fetch)
		if nil != err {
			return nil, err
		}
		return item.Value(), nil
	})
	if nil != err {
		return nil, err
	}
	a, _ := v.(*track.Analysis)
	return a, nil
}

// Peek returns a live cached analysis without fetching.
func (c *AnalysesCache) Peek(trackID string) (*track.Analysis, bool) {
	item := c.c.Get(trackID)
	if nil == item || item.Expired() {
		return nil, false
	}
	return item.Value(), true
}

func (c *AnalysesCache) Forget(trackID string) bool {
	return c.c.Delete(trackID)
}

func (c *AnalysesCache) Len() int {
	return c.c.ItemCount()
}

func (c *AnalysesCache) Stop() {
	c.c.Stop()
}
