package compat

import (
	"strings"

	"github.com/samber/lo"

	"github.com/xeptore/djmix/mathutil"
)

type BPMRelationship string

const (
	BPMExactMatch        BPMRelationship = "exact_match"
	BPMCloseMatch        BPMRelationship = "close_match"
	BPMRequiresTechnique BPMRelationship = "requires_technique"
	BPMDoubleTime        BPMRelationship = "double_time"
	BPMHalfTime          BPMRelationship = "half_time"
	BPMOnePointFive      BPMRelationship = "one_point_five"
	BPMIncompatible      BPMRelationship = "incompatible"
	BPMUnknown           BPMRelationship = "unknown"
)

type Technique string

const (
	TechniqueDirectMix    Technique = "direct_mix"
	TechniqueTempoMatch   Technique = "tempo_match"
	TechniqueTempoAdjust  Technique = "tempo_adjust"
	TechniqueSlightAdjust Technique = "slight_adjust"
	TechniqueMajorAdjust  Technique = "major_adjust"
	TechniqueUnknown      Technique = "unknown"
)

// Band limits, in percent of the current BPM.
const (
	TempoRatioTolerance = 3.0
	ExactMatchTolerance = 3.0
	CloseMatchTolerance = 6.0
	TechniqueTolerance  = 10.0
)

// GenreNudge is added for electronic genres and subtracted for acoustic ones.
const GenreNudge = 0.05

type BPMCompatibility struct {
	Score        float64         `json:"compatibility"`
	Relationship BPMRelationship `json:"relationship"`
	Technique    Technique       `json:"recommended_technique"`
	Confidence   float64         `json:"confidence"`
	DiffPercent  float64         `json:"diff_percent"`
}

type bpmRule struct {
	score      float64
	technique  Technique
	confidence float64
}

var bpmRules = map[BPMRelationship]bpmRule{
	BPMExactMatch:        {score: 1.0, technique: TechniqueDirectMix, confidence: 0.95},
	BPMCloseMatch:        {score: 0.8, technique: TechniqueSlightAdjust, confidence: 0.85},
	BPMDoubleTime:        {score: 0.9, technique: TechniqueTempoMatch, confidence: 0.8},
	BPMHalfTime:          {score: 0.9, technique: TechniqueTempoMatch, confidence: 0.8},
	BPMOnePointFive:      {score: 0.85, technique: TechniqueTempoMatch, confidence: 0.7},
	BPMRequiresTechnique: {score: 0.5, technique: TechniqueTempoAdjust, confidence: 0.6},
	BPMIncompatible:      {score: 0.3, technique: TechniqueMajorAdjust, confidence: 0.5},
	BPMUnknown:           {score: 0.5, technique: TechniqueUnknown, confidence: 0},
}

// BPMScore returns the base score of a relationship, before any genre nudge.
func BPMScore(r BPMRelationship) float64 {
	return bpmRules[r].score
}

type tempoRatio struct {
	ratio        float64
	relationship BPMRelationship
}

var tempoRatios = []tempoRatio{
	{ratio: 0.5, relationship: BPMHalfTime},
	{ratio: 2, relationship: BPMDoubleTime},
	{ratio: 1.5, relationship: BPMOnePointFive},
	{ratio: 2.0 / 3.0, relationship: BPMOnePointFive},
}

var (
	electronicGenreMarkers = []string{
		"electronic", "edm", "house", "techno", "trance", "drum and bass", "drum & bass", "dnb",
		"dubstep", "electro", "hardstyle", "breakbeat", "garage", "disco", "jungle", "bass",
	}
	acousticGenreMarkers = []string{
		"acoustic", "folk", "classical", "jazz", "singer-songwriter", "country", "blues", "bluegrass",
	}
)

// BPM compares a candidate tempo against the current one. genre is optional.
func BPM(current, candidate float64, genre string) BPMCompatibility {
	if current <= 0 || candidate <= 0 {
		return fromRule(BPMUnknown, 0)
	}

	for _, r := range tempoRatios {
		target := current * r.ratio
		if mathutil.PercentDiff(candidate, target, target) < TempoRatioTolerance {
			return nudge(fromRule(r.relationship, mathutil.PercentDiff(candidate, current, current)), genre)
		}
	}

	diff := mathutil.PercentDiff(candidate, current, current)
	var rel BPMRelationship
	switch {
	case diff <= ExactMatchTolerance:
		rel = BPMExactMatch
	case diff <= CloseMatchTolerance:
		rel = BPMCloseMatch
	case diff <= TechniqueTolerance:
		rel = BPMRequiresTechnique
	default:
		rel = BPMIncompatible
	}
	return nudge(fromRule(rel, diff), genre)
}

func fromRule(rel BPMRelationship, diff float64) BPMCompatibility {
	rule := bpmRules[rel]
	return BPMCompatibility{
		Score:        rule.score,
		Relationship: rel,
		Technique:    rule.technique,
		Confidence:   rule.confidence,
		DiffPercent:  diff,
	}
}

func nudge(c BPMCompatibility, genre string) BPMCompatibility {
	if c.Relationship == BPMExactMatch || c.Relationship == BPMUnknown {
		return c
	}
	switch GenreFamilyOf(genre) {
	case GenreElectronic:
		c.Score = mathutil.Unit(c.Score + GenreNudge)
	case GenreAcoustic:
		c.Score = mathutil.Unit(c.Score - GenreNudge)
	}
	return c
}

type GenreFamily int

const (
	GenreOther GenreFamily = iota
	GenreElectronic
	GenreAcoustic
)

func GenreFamilyOf(genre string) GenreFamily {
	g := strings.ToLower(strings.TrimSpace(genre))
	if g == "" {
		return GenreOther
	}
	has := func(marker string) bool { return strings.Contains(g, marker) }
	switch {
	case lo.ContainsBy(acousticGenreMarkers, has):
		return GenreAcoustic
	case lo.ContainsBy(electronicGenreMarkers, has):
		return GenreElectronic
	default:
		return GenreOther
	}
}
