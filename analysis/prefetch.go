package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/xeptore/djmix/ctxutil"
	"github.com/xeptore/djmix/errutil"
	"github.com/xeptore/djmix/log"
	"github.com/xeptore/djmix/track"
)

// Fetcher wraps a provider with a per-lookup timeout and logging of
// failed lookups.
type Fetcher struct {
	provider Provider
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewFetcher(provider Provider, timeout time.Duration, logger zerolog.Logger) *Fetcher {
	if nil == provider {
		provider = None
	}
	return &Fetcher{provider: provider, timeout: timeout, logger: log.Module(logger, "analysis")}
}

// Get returns the analysis of t, or nil when the provider has none or
// fails. Only an error of ctx itself is returned.
func (f *Fetcher) Get(ctx context.Context, t track.Track) (*track.Analysis, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}

	lookupCtx, cancel := ctxutil.WithOptionalTimeout(ctx, f.timeout)
	defer cancel()

	a, err := f.provider.Analysis(lookupCtx, t)
	if nil != err {
		switch {
		case errutil.IsContext(ctx):
			return nil, ctx.Err()
		case errors.Is(err, ErrNotFound):
			f.logger.Debug().Func(t.Log).Msg("No analysis for track")
		case errutil.IsFlaw(err):
			f.logger.Warn().Func(t.Log).Func(log.Flaw(err)).Msg("Analysis lookup failed")
		default:
			f.logger.Warn().Func(t.Log).Err(err).Msg("Analysis lookup failed")
		}
		return nil, nil
	}
	return a, nil
}

// Prefetch looks up analyses for tracks with at most concurrency lookups in
// flight. The result holds only tracks that have an analysis.
func (f *Fetcher) Prefetch(ctx context.Context, tracks []track.Track, concurrency int) (map[string]*track.Analysis, error) {
	var (
		wg, wgCtx = errgroup.WithContext(ctx)
		mux       sync.Mutex
		out       = make(map[string]*track.Analysis, len(tracks))
	)

	if concurrency <= 0 {
		concurrency = -1
	}
	wg.SetLimit(concurrency)
	for _, t := range tracks {
		wg.Go(func() error {
			a, err := f.Get(wgCtx, t)
			if nil != err {
				return err
			}
			if nil != a {
				mux.Lock()
				out[t.ID] = a
				mux.Unlock()
			}
			return nil
		})
	}

	if err := wg.Wait(); nil != err {
		return nil, err
	}
	return out, nil
}
