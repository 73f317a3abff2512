package transition

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/xeptore/djmix/analysis"
	"github.com/xeptore/djmix/log"
	"github.com/xeptore/djmix/mixerr"
	"github.com/xeptore/djmix/track"
)

type Planner struct {
	opts    Options
	fetcher *analysis.Fetcher
	logger  zerolog.Logger
}

func NewPlanner(opts Options, fetcher *analysis.Fetcher, logger zerolog.Logger) *Planner {
	if nil == fetcher {
		fetcher = analysis.NewFetcher(analysis.None, 0, logger)
	}
	return &Planner{
		opts:    opts.withDefaults(),
		fetcher: fetcher,
		logger:  log.Module(logger, "transition"),
	}
}

func (p *Planner) Options() Options {
	return p.opts
}

func (p *Planner) Fetcher() *analysis.Fetcher {
	return p.fetcher
}

// Build plans a transition from already fetched analyses.
func (p *Planner) Build(from track.Track, fromAnalysis *track.Analysis, to track.Track, toAnalysis *track.Analysis) *Transition {
	return Build(p.opts, from, fromAnalysis, to, toAnalysis)
}

// Plan fetches both analyses and plans the transition. Analysis lookup
// failures degrade to defaults; a done ctx or a track without ID fails the
// whole plan.
func (p *Planner) Plan(ctx context.Context, from, to track.Track) (*Transition, error) {
	if from.ID == "" || to.ID == "" {
		return nil, mixerr.New(mixerr.CodeTransitionPlan, "cannot plan transition for a track without id")
	}

	fromAnalysis, err := p.fetcher.Get(ctx, from)
	if nil != err {
		return nil, mixerr.Wrap(mixerr.CodeTransitionPlan, err, "failed to get analysis of %q", from.ID)
	}

	toAnalysis, err := p.fetcher.Get(ctx, to)
	if nil != err {
		return nil, mixerr.Wrap(mixerr.CodeTransitionPlan, err, "failed to get analysis of %q", to.ID)
	}

	t := p.Build(from, fromAnalysis, to, toAnalysis)
	p.logger.Debug().Func(t.Log).Msg("Planned transition")
	return t, nil
}
