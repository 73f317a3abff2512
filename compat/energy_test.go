package compat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/djmix/compat"
	"github.com/xeptore/djmix/track"
)

func TestEnergy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		current   float64
		target    float64
		direction compat.EnergyDirection
		hint      compat.EnergyHint
		alignment float64
	}{
		{"Rising", 0.4, 0.7, compat.EnergyRising, compat.HintBuildUp, 0.85},
		{"Falling", 0.7, 0.4, compat.EnergyFalling, compat.HintCooldown, 0.6},
		{"Steady", 0.6, 0.65, compat.EnergySteady, compat.HintMaintain, 0.75},
		{"BigJumpUp", 0.2, 0.9, compat.EnergyRising, compat.HintBuildUp, 0.45},
		{"BigDrop", 0.9, 0.1, compat.EnergyFalling, compat.HintCooldown, 0.1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := compat.Energy(&track.Analysis{Energy: tc.current}, &track.Analysis{Energy: tc.target}) //nolint:exhaustruct
			assert.Equal(t, tc.direction, got.Direction)
			assert.Equal(t, tc.hint, got.Hint)
			assert.InDelta(t, tc.alignment, got.Alignment, 1e-9)
			assert.InDelta(t, tc.current, got.Current, 1e-9)
			assert.InDelta(t, tc.target, got.Target, 1e-9)
		})
	}
}

func TestEnergyMissingAnalysis(t *testing.T) {
	t.Parallel()

	got := compat.Energy(nil, nil)
	assert.Equal(t, compat.EnergySteady, got.Direction)
	assert.Equal(t, compat.HintMaintain, got.Hint)
	assert.InDelta(t, track.DefaultEnergy, got.Current, 1e-9)

	got = compat.Energy(nil, &track.Analysis{Energy: 0.9}) //nolint:exhaustruct
	assert.Equal(t, compat.EnergyRising, got.Direction)
}

func TestEnergyAlignmentBounds(t *testing.T) {
	t.Parallel()

	for c := 0.0; c <= 1.0; c += 0.1 {
		for tg := 0.0; tg <= 1.0; tg += 0.1 {
			a := compat.EnergyBetween(c, tg).Alignment
			assert.GreaterOrEqual(t, a, 0.0)
			assert.LessOrEqual(t, a, 1.0)
		}
	}
}

func TestMixScenarioDominantAtHigherTempo(t *testing.T) {
	t.Parallel()

	b := compat.BPM(120, 128, "")
	k := compat.KeyCompat("C", "G")
	e := compat.EnergyBetween(0.6, 0.6)

	assert.Equal(t, compat.BPMRequiresTechnique, b.Relationship)
	assert.InDelta(t, 0.5, b.Score, 1e-9)
	assert.Equal(t, compat.KeyDominant, k.Relationship)
	assert.InDelta(t, 0.8, k.Score, 1e-9)

	overall := 0.4*b.Score + 0.4*k.Score + 0.2*e.Alignment
	assert.Greater(t, overall, 0.5)
	assert.Less(t, overall, 0.7)
}
