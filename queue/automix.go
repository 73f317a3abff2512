package queue

import (
	"context"
	"slices"

	"github.com/samber/lo"

	"github.com/xeptore/djmix/mixerr"
	"github.com/xeptore/djmix/track"
	"github.com/xeptore/djmix/transition"
)

type Recommendation struct {
	Track      track.Track            `json:"track"`
	Analysis   *track.Analysis        `json:"analysis"`
	Transition *transition.Transition `json:"transition"`
	// Score is the strategy-weighted compatibility with the anchor track.
	Score float64 `json:"score"`
}

type strategyWeights struct{ bpm, key, energy float64 }

var weights = map[Strategy]strategyWeights{
	StrategyBalanced: {bpm: transition.BPMWeight, key: transition.KeyWeight, energy: transition.EnergyWeight},
	StrategyHarmonic: {bpm: 0.2, key: 0.6, energy: 0.2},
	StrategyTempo:    {bpm: 0.6, key: 0.2, energy: 0.2},
	StrategyEnergy:   {bpm: 0.2, key: 0.2, energy: 0.6},
}

func (w strategyWeights) score(t *transition.Transition) float64 {
	return w.bpm*t.BPM.Score + w.key*t.Key.Score + w.energy*t.Energy.Alignment
}

// GetAutoMixRecommendations ranks pool tracks as followers of the queue tail,
// or of the now playing track when the queue is empty. Queued tracks and
// the anchor itself are skipped. limit <= 0 returns every match.
func (m *Manager) GetAutoMixRecommendations(ctx context.Context, pool []track.Track, limit int) ([]Recommendation, error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.recommendLocked(ctx, pool, limit)
}

func (m *Manager) recommendLocked(ctx context.Context, pool []track.Track, limit int) ([]Recommendation, error) {
	anchor := m.anchorLocked(len(m.items))
	if nil == anchor {
		return nil, mixerr.New(mixerr.CodeNoCurrentSong, "no queued or playing track to mix from")
	}
	if nil == anchor.Analysis {
		return nil, mixerr.New(mixerr.CodeNoAnalysis, "track %q has no analysis to mix from", anchor.Track.ID)
	}

	candidates := lo.Filter(pool, func(t track.Track, _ int) bool {
		return t.ID != "" && t.ID != anchor.Track.ID && m.indexLocked(t.ID) < 0
	})
	candidates = lo.UniqBy(candidates, func(t track.Track) string { return t.ID })
	if len(candidates) == 0 {
		return nil, mixerr.New(mixerr.CodeAutoMixNoCandidates, "no candidate tracks left to recommend")
	}

	analyses, err := m.planner.Fetcher().Prefetch(ctx, candidates, 0)
	if nil != err {
		return nil, mixerr.Wrap(mixerr.CodeAnalysis, err, "failed to fetch candidate analyses")
	}

	opts := m.cfg.AutoMix
	if r := opts.BPMRange; nil != r {
		candidates = lo.Filter(candidates, func(t track.Track, _ int) bool {
			a, ok := analyses[t.ID]
			return ok && r.Contains(a.BPM)
		})
		if len(candidates) == 0 {
			return nil, mixerr.New(mixerr.CodeAutoMixInsufficientFilt, "no candidate tracks within bpm range %v-%v", r.Min, r.Max)
		}
	}

	w := weights[opts.Strategy]
	out := make([]Recommendation, 0, len(candidates))
	for _, t := range candidates {
		a := analyses[t.ID]
		tr := m.planner.Build(anchor.Track, anchor.Analysis, t, a)
		if s := w.score(tr); s >= opts.MinCompatibility {
			out = append(out, Recommendation{Track: t, Analysis: a, Transition: tr, Score: s})
		}
	}
	if len(out) == 0 {
		return nil, mixerr.New(
			mixerr.CodeAutoMixInsufficientSongs,
			"none of %d candidates reaches compatibility %.2f with %q",
			len(candidates),
			opts.MinCompatibility,
			anchor.Track.ID,
		)
	}

	slices.SortStableFunc(out, func(a, b Recommendation) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AutoRefillQueue appends the best recommendation from pool, one at a time,
// until the queue holds the configured refill count. It is a no-op unless
// both auto-mix and auto-refill are enabled. A failure after the first
// pick ends the refill early and keeps what was added.
func (m *Manager) AutoRefillQueue(ctx context.Context, pool []track.Track) ([]Item, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if !m.cfg.AutoMixEnabled || !m.cfg.AutoRefill {
		return nil, nil
	}

	need := min(m.cfg.RefillCount, m.cfg.MaxQueueSize) - len(m.items)
	added := make([]Item, 0, max(0, need))
	for range need {
		recs, err := m.recommendLocked(ctx, pool, 1)
		if nil == err {
			var item *Item
			if item, err = m.addLocked(ctx, recs[0].Track, true); nil == err {
				added = append(added, *item)
				continue
			}
		}
		if len(added) == 0 {
			return nil, err
		}
		m.logger.Debug().Err(err).Int("added", len(added)).Msg("Queue refill stopped early")
		break
	}

	if len(added) > 0 {
		m.logger.Info().Int("added", len(added)).Int("queue_length", len(m.items)).Msg("Queue refilled")
	}
	return added, nil
}
