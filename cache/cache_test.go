package cache_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/xeptore/djmix/cache"
	"github.com/xeptore/djmix/track"
)

func TestAnalysesCacheFetch(t *testing.T) {
	t.Parallel()

	c := cache.New(0)
	t.Cleanup(c.Analyses.Stop)

	calls := 0
	fetch := func() (*track.Analysis, error) {
		calls++
		return &track.Analysis{BPM: 124, Key: "Am", Energy: 0.7}, nil //nolint:exhaustruct
	}

	first, err := c.Analyses.Fetch("t1", time.Minute, fetch)
	require.NoError(t, err)
	second, err := c.Analyses.Fetch("t1", time.Minute, fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Analyses.Len())

	peeked, ok := c.Analyses.Peek("t1")
	require.True(t, ok)
	assert.InDelta(t, 124.0, peeked.BPM, 1e-9)

	assert.True(t, c.Analyses.Forget("t1"))
	_, ok = c.Analyses.Peek("t1")
	assert.False(t, ok)
}

func TestAnalysesCacheFetchError(t *testing.T) {
	t.Parallel()

	c := cache.New(10)
	t.Cleanup(c.Analyses.Stop)

	boom := errors.New("analyzer unavailable")
	_, err := c.Analyses.Fetch("t1", time.Minute, func() (*track.Analysis, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	_, ok := c.Analyses.Peek("t1")
	assert.False(t, ok)
}

func TestAnalysesCacheFetchDistinctTracksInParallel(t *testing.T) {
	t.Parallel()

	c := cache.New(10)
	t.Cleanup(c.Analyses.Stop)

	var started sync.WaitGroup
	started.Add(2)
	overlapped := make(chan struct{})
	go func() {
		started.Wait()
		close(overlapped)
	}()

	fetch := func() (*track.Analysis, error) {
		started.Done()
		select {
		case <-overlapped:
			return &track.Analysis{BPM: 128, Key: "C", Energy: 0.5}, nil //nolint:exhaustruct
		case <-time.After(5 * time.Second):
			return nil, errors.New("fetches did not run concurrently")
		}
	}

	var wg errgroup.Group
	for _, id := range []string{"t1", "t2"} {
		wg.Go(func() error {
			_, err := c.Analyses.Fetch(id, time.Minute, fetch)
			return err
		})
	}
	require.NoError(t, wg.Wait())
	assert.Equal(t, 2, c.Analyses.Len())
}

func TestAnalysesCacheFetchSameTrackOnce(t *testing.T) {
	t.Parallel()

	c := cache.New(10)
	t.Cleanup(c.Analyses.Stop)

	var calls atomic.Int32
	fetch := func() (*track.Analysis, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return &track.Analysis{BPM: 124, Key: "Am", Energy: 0.6}, nil //nolint:exhaustruct
	}

	var wg errgroup.Group
	for range 8 {
		wg.Go(func() error {
			_, err := c.Analyses.Fetch("t1", time.Minute, fetch)
			return err
		})
	}
	require.NoError(t, wg.Wait())
	assert.Equal(t, int32(1), calls.Load())
}
