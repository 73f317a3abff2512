package compat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/djmix/compat"
)

func TestBPM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		current   float64
		candidate float64
		genre     string
		score     float64
		rel       compat.BPMRelationship
		technique compat.Technique
	}{
		{"Identical", 128, 128, "", 1.0, compat.BPMExactMatch, compat.TechniqueDirectMix},
		{"WithinThreePercent", 120, 123, "", 1.0, compat.BPMExactMatch, compat.TechniqueDirectMix},
		{"Close", 120, 126, "", 0.8, compat.BPMCloseMatch, compat.TechniqueSlightAdjust},
		{"RequiresTechnique", 120, 128, "", 0.5, compat.BPMRequiresTechnique, compat.TechniqueTempoAdjust},
		{"Incompatible", 120, 140, "", 0.3, compat.BPMIncompatible, compat.TechniqueMajorAdjust},
		{"DoubleTime", 120, 240, "", 0.9, compat.BPMDoubleTime, compat.TechniqueTempoMatch},
		{"HalfTime", 174, 87, "", 0.9, compat.BPMHalfTime, compat.TechniqueTempoMatch},
		{"OnePointFive", 100, 150, "", 0.85, compat.BPMOnePointFive, compat.TechniqueTempoMatch},
		{"TwoThirds", 150, 100, "", 0.85, compat.BPMOnePointFive, compat.TechniqueTempoMatch},
		{"ZeroCurrent", 0, 120, "", 0.5, compat.BPMUnknown, compat.TechniqueUnknown},
		{"NegativeCandidate", 120, -1, "", 0.5, compat.BPMUnknown, compat.TechniqueUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := compat.BPM(tc.current, tc.candidate, tc.genre)
			assert.InDelta(t, tc.score, got.Score, 1e-9)
			assert.Equal(t, tc.rel, got.Relationship)
			assert.Equal(t, tc.technique, got.Technique)
		})
	}
}

func TestBPMIdentityAndMultiples(t *testing.T) {
	t.Parallel()

	for _, bpm := range []float64{60, 87.5, 100, 120, 128, 140, 174, 200} {
		same := compat.BPM(bpm, bpm, "")
		assert.InDelta(t, 1.0, same.Score, 1e-9, "bpm %v", bpm)
		assert.Equal(t, compat.BPMExactMatch, same.Relationship, "bpm %v", bpm)

		double := compat.BPM(bpm, bpm*2, "")
		assert.InDelta(t, 0.9, double.Score, 1e-9, "bpm %v", bpm)
		assert.Equal(t, compat.BPMDoubleTime, double.Relationship, "bpm %v", bpm)

		half := compat.BPM(bpm, bpm/2, "")
		assert.InDelta(t, 0.9, half.Score, 1e-9, "bpm %v", bpm)
		assert.Equal(t, compat.BPMHalfTime, half.Relationship, "bpm %v", bpm)
	}
}

func TestBPMDiffPercent(t *testing.T) {
	t.Parallel()

	got := compat.BPM(120, 128, "")
	assert.InDelta(t, 6.667, got.DiffPercent, 1e-3)
	assert.InDelta(t, 0.6, got.Confidence, 1e-9)
}

func TestBPMGenreNudge(t *testing.T) {
	t.Parallel()

	t.Run("Electronic", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0.85, compat.BPM(120, 126, "Deep House").Score, 1e-9)
		assert.InDelta(t, 0.35, compat.BPM(120, 140, "techno").Score, 1e-9)
	})

	t.Run("Acoustic", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0.75, compat.BPM(120, 126, "Acoustic Folk").Score, 1e-9)
		assert.InDelta(t, 0.45, compat.BPM(120, 128, "jazz").Score, 1e-9)
	})

	t.Run("ExactMatchUntouched", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 1.0, compat.BPM(120, 120, "house").Score, 1e-9)
		assert.InDelta(t, 1.0, compat.BPM(120, 120, "folk").Score, 1e-9)
	})

	t.Run("UnknownUntouched", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0.5, compat.BPM(0, 120, "house").Score, 1e-9)
	})

	t.Run("OtherGenre", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0.8, compat.BPM(120, 126, "pop").Score, 1e-9)
	})
}

func TestGenreFamilyOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, compat.GenreElectronic, compat.GenreFamilyOf("Progressive Trance"))
	assert.Equal(t, compat.GenreElectronic, compat.GenreFamilyOf("Drum and Bass"))
	assert.Equal(t, compat.GenreAcoustic, compat.GenreFamilyOf("Classical"))
	assert.Equal(t, compat.GenreAcoustic, compat.GenreFamilyOf("acoustic house"))
	assert.Equal(t, compat.GenreOther, compat.GenreFamilyOf("hip hop"))
	assert.Equal(t, compat.GenreOther, compat.GenreFamilyOf(""))
}

func TestBPMScore(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, compat.BPMScore(compat.BPMExactMatch), 1e-9)
	assert.InDelta(t, 0.9, compat.BPMScore(compat.BPMDoubleTime), 1e-9)
	assert.InDelta(t, 0.5, compat.BPMScore(compat.BPMUnknown), 1e-9)
}
