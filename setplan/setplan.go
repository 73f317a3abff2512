// Package setplan sequences candidate tracks into a DJ set that follows a
// target energy curve while keeping tempo and key continuity.
package setplan

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/xeptore/djmix/compat"
	"github.com/xeptore/djmix/errutil"
	"github.com/xeptore/djmix/log"
	"github.com/xeptore/djmix/mathutil"
	"github.com/xeptore/djmix/mixerr"
	"github.com/xeptore/djmix/track"
	"github.com/xeptore/djmix/transition"
)

type KeyMode string

const (
	KeyModeCircleOfFifths KeyMode = "circle_of_fifths"
	KeyModeRandom         KeyMode = "random"
	KeyModeHarmonic       KeyMode = "harmonic"
	KeyModeEnergyBased    KeyMode = "energy_based"
)

var KeyModes = []KeyMode{KeyModeCircleOfFifths, KeyModeRandom, KeyModeHarmonic, KeyModeEnergyBased}

// Selection weights of the greedy step.
const (
	EnergyWeight = 0.5
	KeyWeight    = 0.3
	BPMWeight    = 0.2
)

// WeakLink is the transition compatibility below which the plan notes a
// warning.
const WeakLink = 0.5

type BPMRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

func (r BPMRange) Contains(bpm float64) bool {
	return bpm >= r.Min && (r.Max <= 0 || bpm <= r.Max)
}

type Options struct {
	// MaxSongs bounds the set length. Zero uses every candidate.
	MaxSongs    int         `json:"max_songs"    yaml:"max_songs"`
	Curve       EnergyCurve `json:"energy_curve" yaml:"energy_curve"`
	StartEnergy *float64    `json:"start_energy" yaml:"start_energy"`
	EndEnergy   *float64    `json:"end_energy"   yaml:"end_energy"`
	KeyMode     KeyMode     `json:"key_mode"     yaml:"key_mode"`
	Genres      []string    `json:"genres"       yaml:"genres"`
	BPMRange    *BPMRange   `json:"bpm_range"    yaml:"bpm_range"`
}

func (o Options) Validate() error {
	if o.MaxSongs < 0 {
		return fmt.Errorf("max songs must not be negative, got %d", o.MaxSongs)
	}
	if o.Curve != "" && !lo.Contains(EnergyCurves, o.Curve) {
		return fmt.Errorf("unknown energy curve %q", o.Curve)
	}
	if o.KeyMode != "" && !lo.Contains(KeyModes, o.KeyMode) {
		return fmt.Errorf("unknown key mode %q", o.KeyMode)
	}
	for name, v := range map[string]*float64{"start": o.StartEnergy, "end": o.EndEnergy} {
		if nil != v && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s energy must be within [0, 1], got %v", name, *v)
		}
	}
	if r := o.BPMRange; nil != r && r.Max > 0 && r.Min > r.Max {
		return fmt.Errorf("bpm range min %v exceeds max %v", r.Min, r.Max)
	}
	return nil
}

type Plan struct {
	Tracks         []track.Track            `json:"tracks"`
	Transitions    []*transition.Transition `json:"transitions"`
	TotalDuration  float64                  `json:"total_duration"`
	AverageEnergy  float64                  `json:"average_energy"`
	EnergyProfile  []float64                `json:"energy_profile"`
	TargetEnergy   []float64                `json:"target_energy"`
	BPMProgression []float64                `json:"bpm_progression"`
	KeyProgression []string                 `json:"key_progression"`
	Compatibility  float64                  `json:"compatibility"`
	Notes          []string                 `json:"notes"`
}

type Planner struct {
	transitions *transition.Planner
	concurrency int
	logger      zerolog.Logger
}

// NewPlanner creates a set planner. concurrency bounds parallel analysis
// lookups; non-positive means unbounded.
func NewPlanner(transitions *transition.Planner, concurrency int, logger zerolog.Logger) *Planner {
	return &Planner{
		transitions: transitions,
		concurrency: concurrency,
		logger:      log.Module(logger, "setplan"),
	}
}

type candidate struct {
	track    track.Track
	analysis *track.Analysis
}

// Plan picks and orders up to opts.MaxSongs of candidates. The result is a
// deterministic function of the inputs and provider answers.
func (p *Planner) Plan(ctx context.Context, candidates []track.Track, opts Options) (*Plan, error) {
	if len(candidates) < 2 {
		return nil, mixerr.New(mixerr.CodeSet, "at least 2 tracks are required to plan a set, got %d", len(candidates))
	}
	if err := opts.Validate(); nil != err {
		return nil, mixerr.Wrap(mixerr.CodeSet, err, "invalid set options")
	}
	if opts.Curve == "" {
		opts.Curve = CurveRising
	}
	if opts.KeyMode == "" {
		opts.KeyMode = KeyModeHarmonic
	}

	analyses, err := p.transitions.Fetcher().Prefetch(ctx, candidates, p.concurrency)
	if nil != err {
		return nil, mixerr.Wrap(mixerr.CodeSetPlanning, err, "failed to fetch analyses")
	}

	pool := lo.FilterMap(candidates, func(t track.Track, _ int) (candidate, bool) {
		c := candidate{track: t, analysis: analyses[t.ID]}
		return c, keep(c, opts)
	})
	if len(pool) < 2 {
		return nil, mixerr.New(
			mixerr.CodeAutoMixInsufficientFilt,
			"only %d of %d tracks match the set filters, at least 2 are required",
			len(pool),
			len(candidates),
		)
	}

	n := len(pool)
	if opts.MaxSongs > 0 {
		n = mathutil.Clamp(opts.MaxSongs, 2, len(pool))
	}
	targets := opts.Curve.Targets(n, opts.StartEnergy, opts.EndEnergy)

	picked, err := sequence(ctx, pool, targets, opts.KeyMode)
	if nil != err {
		return nil, mixerr.Wrap(mixerr.CodeSetPlanning, err, "set planning interrupted")
	}

	plan := p.assemble(picked, targets)
	plan.Notes = notes(plan, opts, len(candidates), len(pool))

	p.logger.
		Debug().
		Int("tracks", len(plan.Tracks)).
		Str("energy_curve", string(opts.Curve)).
		Float64("compatibility", mathutil.Round(plan.Compatibility, 3)).
		Msg("Planned set")
	return plan, nil
}

func keep(c candidate, opts Options) bool {
	if len(opts.Genres) > 0 {
		genre := strings.ToLower(c.track.Genre)
		match := lo.ContainsBy(opts.Genres, func(g string) bool {
			g = strings.ToLower(strings.TrimSpace(g))
			return g != "" && strings.Contains(genre, g)
		})
		if !match {
			return false
		}
	}
	if nil != opts.BPMRange {
		if nil == c.analysis || !opts.BPMRange.Contains(c.analysis.BPM) {
			return false
		}
	}
	return true
}

// sequence greedily fills each position with the unused candidate scoring
// highest against the previous pick. Ties keep input order.
func sequence(ctx context.Context, pool []candidate, targets []float64, mode KeyMode) ([]candidate, error) {
	var (
		used   = make([]bool, len(pool))
		picked = make([]candidate, 0, len(targets))
	)

	for pos, target := range targets {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}

		best, bestScore := -1, math.Inf(-1)
		for i, c := range pool {
			if used[i] {
				continue
			}
			var s float64
			if pos == 0 {
				s = energyMatch(c.analysis, target)
			} else {
				s = score(picked[pos-1], c, target, mode)
			}
			if s > bestScore {
				best, bestScore = i, s
			}
		}
		if best < 0 {
			best = lo.IndexOf(used, false)
		}

		used[best] = true
		picked = append(picked, pool[best])
	}
	return picked, nil
}

func energyMatch(a *track.Analysis, target float64) float64 {
	return 1 - math.Abs(track.EnergyOf(a)-target)
}

func score(prev, next candidate, target float64, mode KeyMode) float64 {
	e := energyMatch(next.analysis, target)
	b := compat.BPM(track.BPMOf(prev.analysis), track.BPMOf(next.analysis), next.track.Genre).Score
	return EnergyWeight*e + KeyWeight*keyScore(prev, next, e, mode) + BPMWeight*b
}

// circleBonus rewards dominant steps in circle-of-fifths mode.
const circleBonus = 0.1

func keyScore(prev, next candidate, energy float64, mode KeyMode) float64 {
	switch mode {
	case KeyModeRandom:
		return compat.KeyScore(compat.KeyUnknown)
	case KeyModeEnergyBased:
		return energy
	case KeyModeCircleOfFifths:
		k := compat.KeyCompat(track.KeyOf(prev.analysis), track.KeyOf(next.analysis))
		if k.Relationship == compat.KeyDominant {
			return mathutil.Unit(k.Score + circleBonus)
		}
		return k.Score
	default:
		return compat.KeyCompat(track.KeyOf(prev.analysis), track.KeyOf(next.analysis)).Score
	}
}

func (p *Planner) assemble(picked []candidate, targets []float64) *Plan {
	plan := &Plan{
		Tracks:         make([]track.Track, len(picked)),
		Transitions:    make([]*transition.Transition, 0, len(picked)-1),
		TotalDuration:  0,
		AverageEnergy:  0,
		EnergyProfile:  make([]float64, len(picked)),
		TargetEnergy:   targets,
		BPMProgression: make([]float64, len(picked)),
		KeyProgression: make([]string, len(picked)),
		Compatibility:  0,
		Notes:          nil,
	}

	var overlap float64
	for i, c := range picked {
		plan.Tracks[i] = c.track
		plan.EnergyProfile[i] = track.EnergyOf(c.analysis)
		plan.BPMProgression[i] = track.BPMOf(c.analysis)
		plan.KeyProgression[i] = track.KeyOf(c.analysis)
		plan.TotalDuration += c.track.Duration

		if i > 0 {
			prev := picked[i-1]
			t := p.transitions.Build(prev.track, prev.analysis, c.track, c.analysis)
			plan.Transitions = append(plan.Transitions, t)
			overlap += t.Duration
		}
	}

	plan.TotalDuration = max(0, plan.TotalDuration-overlap)
	plan.AverageEnergy = mathutil.Mean(plan.EnergyProfile)
	plan.Compatibility = mathutil.Mean(lo.Map(plan.Transitions, func(t *transition.Transition, _ int) float64 { return t.Compatibility }))
	return plan
}

func notes(plan *Plan, opts Options, total, eligible int) []string {
	out := []string{
		fmt.Sprintf(
			"%s energy curve over %d tracks, %.2f to %.2f",
			opts.Curve,
			len(plan.Tracks),
			plan.TargetEnergy[0],
			plan.TargetEnergy[len(plan.TargetEnergy)-1],
		),
		fmt.Sprintf("Average transition compatibility %.2f", plan.Compatibility),
	}
	if eligible < total {
		out = append(out, fmt.Sprintf("%d of %d candidates excluded by filters", total-eligible, total))
	}
	for _, t := range plan.Transitions {
		if t.Compatibility < WeakLink {
			out = append(out, fmt.Sprintf("Weak transition %q → %q (%.2f), consider a %s", t.From.String(), t.To.String(), t.Compatibility, t.Type))
		}
	}
	return out
}
