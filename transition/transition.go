// Package transition plans how one track hands over to the next: it scores
// the pair, picks a transition type, times it, and samples the volume,
// energy and filter automation over the transition window.
package transition

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/xeptore/djmix/compat"
	"github.com/xeptore/djmix/mathutil"
	"github.com/xeptore/djmix/track"
)

type Type string

const (
	TypeCrossfade     Type = "crossfade"
	TypeCut           Type = "cut"
	TypeEchoOut       Type = "echo_out"
	TypeFilterSweep   Type = "filter_sweep"
	TypeBeatmatch     Type = "beatmatch"
	TypeHarmonic      Type = "harmonic"
	TypeEnergyBuildup Type = "energy_buildup"
	TypeBreakdown     Type = "breakdown"
)

const (
	BeatsPerBar  = 4
	LeadInBars   = 8
	DefaultBase  = 16.0
	DefaultRate  = 10.0
	DefaultCurve = CurveLinear
)

// Weights of the aggregate compatibility score.
const (
	BPMWeight    = 0.4
	KeyWeight    = 0.4
	EnergyWeight = 0.2
)

type Options struct {
	// BaseDuration is the transition length in seconds before adjustments.
	BaseDuration float64 `json:"base_duration" yaml:"base_duration"`
	Curve        Curve   `json:"curve"         yaml:"curve"`
	// KeyLock keeps pitch constant while tempo is adjusted.
	KeyLock bool `json:"key_lock" yaml:"key_lock"`
	// SampleRate is the number of curve samples per second.
	SampleRate float64 `json:"sample_rate" yaml:"sample_rate"`
}

func DefaultOptions() Options {
	return Options{
		BaseDuration: DefaultBase,
		Curve:        DefaultCurve,
		KeyLock:      true,
		SampleRate:   DefaultRate,
	}
}

func (o Options) withDefaults() Options {
	if o.BaseDuration <= 0 {
		o.BaseDuration = DefaultBase
	}
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultRate
	}
	if o.Curve == "" {
		o.Curve = DefaultCurve
	}
	return o
}

// Transition is immutable once built. Rebuild it when either track or its
// analysis changes.
type Transition struct {
	From         track.Track     `json:"from"`
	To           track.Track     `json:"to"`
	FromAnalysis *track.Analysis `json:"from_analysis,omitempty"`
	ToAnalysis   *track.Analysis `json:"to_analysis,omitempty"`
	Type         Type            `json:"transition_type"`
	// StartTime is measured in seconds before the end of From.
	StartTime       float64   `json:"start_time"`
	Duration        float64   `json:"duration"`
	BPMAdjustment   float64   `json:"bpm_adjustment"`
	PitchAdjustment float64   `json:"pitch_adjustment"`
	EnergyCurve     []float64 `json:"energy_curve"`
	VolumeCurve     []float64 `json:"volume_curve"`
	FilterCurve     []float64 `json:"filter_curve,omitempty"`
	Compatibility   float64   `json:"compatibility"`

	BPM    compat.BPMCompatibility `json:"bpm"`
	Key    compat.KeyCompatibility `json:"key"`
	Energy compat.EnergyFlow       `json:"energy"`

	Notes []string `json:"notes"`
}

func (t *Transition) Log(e *zerolog.Event) {
	e.
		Str("from_id", t.From.ID).
		Str("to_id", t.To.ID).
		Str("transition_type", string(t.Type)).
		Float64("compatibility", mathutil.Round(t.Compatibility, 3)).
		Float64("duration", t.Duration)
}

// Aggregate combines the three sub-scores into the overall compatibility.
func Aggregate(bpm, key, energy float64) float64 {
	return mathutil.Unit(BPMWeight*bpm + KeyWeight*key + EnergyWeight*energy)
}

// Build plans the transition from one track to the next. Missing analyses
// fall back to neutral defaults; Build never fails.
func Build(opts Options, from track.Track, fromAnalysis *track.Analysis, to track.Track, toAnalysis *track.Analysis) *Transition {
	opts = opts.withDefaults()

	var (
		fromBPM = track.BPMOf(fromAnalysis)
		toBPM   = track.BPMOf(toAnalysis)
		b       = compat.BPM(fromBPM, toBPM, to.Genre)
		k       = compat.KeyCompat(track.KeyOf(fromAnalysis), track.KeyOf(toAnalysis))
		e       = compat.Energy(fromAnalysis, toAnalysis)
		overall = Aggregate(b.Score, k.Score, e.Alignment)
		typ     = chooseType(b, k, e, overall)
	)

	beatBPM := fromBPM
	if beatBPM <= 0 {
		beatBPM = track.DefaultBPM
	}

	duration := opts.BaseDuration
	if b.Score >= 0.8 && b.Relationship != compat.BPMExactMatch && b.Relationship != compat.BPMUnknown {
		duration *= 1.5
	}
	switch typ { //nolint:exhaustive
	case TypeCut:
		duration = 60 / beatBPM
	case TypeEchoOut:
		duration = opts.BaseDuration / 2
	}

	startTime := LeadInBars * BeatsPerBar * 60 / beatBPM
	if from.Duration > 0 {
		startTime = min(startTime, from.Duration)
	}

	adj := bpmAdjustment(b.Relationship, fromBPM, toBPM)
	pitch := 0.0
	if !opts.KeyLock {
		pitch = 12 * math.Log2(adj)
	}

	n := sampleCount(duration, opts.SampleRate)
	t := &Transition{
		From:            from,
		To:              to,
		FromAnalysis:    fromAnalysis,
		ToAnalysis:      toAnalysis,
		Type:            typ,
		StartTime:       startTime,
		Duration:        duration,
		BPMAdjustment:   adj,
		PitchAdjustment: pitch,
		EnergyCurve:     samples(n, func(p float64) float64 { return energyAt(typ, e.Current, e.Target, p) }),
		VolumeCurve:     samples(n, opts.Curve.Apply),
		FilterCurve:     nil,
		Compatibility:   overall,
		BPM:             b,
		Key:             k,
		Energy:          e,
		Notes:           nil,
	}
	if hasFilter(typ) {
		t.FilterCurve = samples(n, func(p float64) float64 { return filterAt(typ, p) })
	}
	t.Notes = notes(t)
	return t
}

func chooseType(b compat.BPMCompatibility, k compat.KeyCompatibility, e compat.EnergyFlow, overall float64) Type {
	switch {
	case e.Direction == compat.EnergyRising && e.Target > 0.7:
		return TypeEnergyBuildup
	case e.Direction == compat.EnergyFalling && e.Target < 0.3:
		return TypeBreakdown
	case k.Score > 0.9:
		return TypeHarmonic
	case b.Score > 0.8:
		return TypeBeatmatch
	case overall < 0.3:
		return TypeCut
	case overall < 0.4:
		return TypeEchoOut
	case overall < 0.5:
		return TypeFilterSweep
	default:
		return TypeCrossfade
	}
}

func bpmAdjustment(rel compat.BPMRelationship, fromBPM, toBPM float64) float64 {
	switch rel { //nolint:exhaustive
	case compat.BPMExactMatch, compat.BPMCloseMatch, compat.BPMUnknown:
		return 1
	case compat.BPMDoubleTime:
		return 0.5
	case compat.BPMHalfTime:
		return 2
	default:
		return fromBPM / toBPM
	}
}

var bpmNotes = map[compat.BPMRelationship]string{
	compat.BPMExactMatch:        "Tempos match (%.1f → %.1f BPM), mix directly",
	compat.BPMCloseMatch:        "Tempos are close (%.1f → %.1f BPM), nudge the pitch fader",
	compat.BPMRequiresTechnique: "Tempo gap (%.1f → %.1f BPM) needs a gradual tempo adjustment",
	compat.BPMDoubleTime:        "Incoming track runs double time (%.1f → %.1f BPM)",
	compat.BPMHalfTime:          "Incoming track runs half time (%.1f → %.1f BPM)",
	compat.BPMOnePointFive:      "Tempos sit at a 3:2 ratio (%.1f → %.1f BPM)",
	compat.BPMIncompatible:      "Tempos are far apart (%.1f → %.1f BPM), prefer a short cut or echo",
}

var keyNotes = map[compat.KeyRelationship]string{
	compat.KeyPerfectMatch:  "Same key (%s), harmonically seamless",
	compat.KeyRelativeMinor: "Moves to the relative minor (%s → %s)",
	compat.KeyRelativeMajor: "Moves to the relative major (%s → %s)",
	compat.KeyDominant:      "Dominant step up the wheel (%s → %s) lifts the mood",
	compat.KeySubdominant:   "Subdominant step down the wheel (%s → %s) relaxes the mood",
	compat.KeyCompatible:    "Keys are compatible (%s → %s)",
	compat.KeyIncompatible:  "Keys clash (%s → %s), keep the overlap short",
}

var energyNotes = map[compat.EnergyDirection]string{
	compat.EnergyRising:  "Energy rises %.2f → %.2f",
	compat.EnergyFalling: "Energy drops %.2f → %.2f",
	compat.EnergySteady:  "Energy holds steady around %.2f → %.2f",
}

func notes(t *Transition) []string {
	out := make([]string, 0, 5)

	if nil == t.FromAnalysis {
		out = append(out, fmt.Sprintf("No analysis for %q, using defaults", t.From.String()))
	}
	if nil == t.ToAnalysis {
		out = append(out, fmt.Sprintf("No analysis for %q, using defaults", t.To.String()))
	}

	if tpl, ok := bpmNotes[t.BPM.Relationship]; ok {
		out = append(out, fmt.Sprintf(tpl, track.BPMOf(t.FromAnalysis), track.BPMOf(t.ToAnalysis)))
	} else {
		out = append(out, "Tempo unknown, beatmatch by ear")
	}

	switch t.Key.Relationship {
	case compat.KeyUnknown:
		out = append(out, "Key unknown, check harmonic fit by ear")
	case compat.KeyPerfectMatch:
		out = append(out, fmt.Sprintf(keyNotes[compat.KeyPerfectMatch], track.KeyOf(t.FromAnalysis)))
	default:
		out = append(out, fmt.Sprintf(keyNotes[t.Key.Relationship], track.KeyOf(t.FromAnalysis), track.KeyOf(t.ToAnalysis)))
	}

	out = append(out, fmt.Sprintf(energyNotes[t.Energy.Direction], t.Energy.Current, t.Energy.Target))
	return out
}
