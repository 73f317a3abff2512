package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/xeptore/djmix/analysis"
	"github.com/xeptore/djmix/cache"
	"github.com/xeptore/djmix/config"
	"github.com/xeptore/djmix/session"
	"github.com/xeptore/djmix/setplan"
	"github.com/xeptore/djmix/track"
	"github.com/xeptore/djmix/transition"
)

type engine struct {
	cfg         *config.Config
	library     *analysis.Library
	cache       *cache.Cache
	transitions *transition.Planner
	sets        *setplan.Planner
	logger      zerolog.Logger
}

// newEngine wires library lookups through retries and the analysis cache
// into the planners.
func newEngine(cfg *config.Config, logger zerolog.Logger) (*engine, error) {
	if cfg.Library == "" {
		return nil, fmt.Errorf("no track library given. set --%s or the library config value", flagLibraryPath)
	}

	lib, err := analysis.LoadLibrary(cfg.Library)
	if nil != err {
		return nil, err
	}
	logger.Debug().Str("library", cfg.Library).Int("tracks", len(lib.Tracks())).Msg("Library loaded")

	var (
		c        = cache.New(cfg.Analysis.CacheSize)
		provider = analysis.NewCached(
			analysis.NewRetrying(lib, cfg.Analysis.MaxRetries, cfg.Analysis.RetryMaxElapsed),
			c,
			cfg.Analysis.CacheTTL,
		)
		fetcher     = analysis.NewFetcher(provider, cfg.Analysis.LookupTimeout, logger)
		transitions = transition.NewPlanner(cfg.Transition, fetcher, logger)
	)
	return &engine{
		cfg:         cfg,
		library:     lib,
		cache:       c,
		transitions: transitions,
		sets:        setplan.NewPlanner(transitions, cfg.Analysis.PrefetchConcurrency, logger),
		logger:      logger,
	}, nil
}

func (e *engine) close() {
	e.cache.Analyses.Stop()
}

func (e *engine) sessions() *session.Manager {
	return session.NewManager(e.cfg.SessionConfig(), e.transitions, e.logger)
}

// tracks resolves ids against the library, all library tracks when ids is
// empty.
func (e *engine) tracks(ids []string) ([]track.Track, error) {
	if len(ids) == 0 {
		return e.library.Tracks(), nil
	}
	out := make([]track.Track, 0, len(ids))
	for _, id := range ids {
		t, ok := e.library.Track(id)
		if !ok {
			return nil, fmt.Errorf("track %q is not in the library", id)
		}
		out = append(out, t)
	}
	return out, nil
}

// pool is every library track not in exclude.
func (e *engine) pool(exclude []track.Track) []track.Track {
	ids := lo.SliceToMap(exclude, func(t track.Track) (string, struct{}) { return t.ID, struct{}{} })
	return lo.Reject(e.library.Tracks(), func(t track.Track, _ int) bool {
		_, ok := ids[t.ID]
		return ok
	})
}
