package compat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/djmix/compat"
)

func TestParseKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		name    string
		camelot string
	}{
		{"C", "C", "8B"},
		{"Am", "Am", "8A"},
		{"F#m", "F#m", "11A"},
		{"Gb", "F#", "2B"},
		{"Bb minor", "A#m", "3A"},
		{"Ebmaj", "D#", "5B"},
		{"c#min", "C#m", "12A"},
		{"8B", "C", "8B"},
		{"5a", "Cm", "5A"},
		{"12A", "C#m", "12A"},
		{"Cb", "B", "1B"},
		{"E#", "F", "7B"},
		{" G major ", "G", "9B"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()

			k, err := compat.ParseKey(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.name, k.String())
			assert.Equal(t, tc.camelot, k.Camelot())
		})
	}

	t.Run("Invalid", func(t *testing.T) {
		t.Parallel()

		for _, in := range []string{"", "H", "Cx", "13A", "0B", "C##", "minor"} {
			_, err := compat.ParseKey(in)
			assert.Error(t, err, "input %q", in)
		}
	})
}

func TestKeyFromPitchClass(t *testing.T) {
	t.Parallel()

	k, ok := compat.KeyFromPitchClass(9, 0)
	require.True(t, ok)
	assert.Equal(t, "Am", k.String())

	k, ok = compat.KeyFromPitchClass(7, 1)
	require.True(t, ok)
	assert.Equal(t, "G", k.String())

	_, ok = compat.KeyFromPitchClass(-1, 1)
	assert.False(t, ok)
}

func TestKeyCompat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from  string
		to    string
		score float64
		rel   compat.KeyRelationship
		fn    compat.HarmonicFunction
	}{
		{"C", "C", 1.0, compat.KeyPerfectMatch, compat.FunctionTonic},
		{"C", "Am", 0.9, compat.KeyRelativeMinor, compat.FunctionSubdominant},
		{"Am", "C", 0.9, compat.KeyRelativeMajor, compat.FunctionTonic},
		{"C", "G", 0.8, compat.KeyDominant, compat.FunctionDominant},
		{"C", "F", 0.8, compat.KeySubdominant, compat.FunctionSubdominant},
		{"Am", "Em", 0.8, compat.KeyDominant, compat.FunctionDominant},
		{"Am", "Dm", 0.8, compat.KeySubdominant, compat.FunctionSubdominant},
		{"C", "D", 0.6, compat.KeyCompatible, compat.FunctionDominant},
		{"C", "Bb", 0.6, compat.KeyCompatible, compat.FunctionSubdominant},
		{"C", "Em", 0.6, compat.KeyCompatible, compat.FunctionDominant},
		{"C", "A", 0.4, compat.KeyIncompatible, compat.FunctionDominant},
		{"C", "E", 0.3, compat.KeyIncompatible, compat.FunctionDominant},
		{"C", "B", 0.2, compat.KeyIncompatible, compat.FunctionDominant},
		{"C", "F#", 0.1, compat.KeyIncompatible, compat.FunctionDominant},
		{"C", "Bm", 0.4, compat.KeyIncompatible, compat.FunctionDominant},
		{"C", "nope", 0.5, compat.KeyUnknown, compat.FunctionTonic},
		{"", "C", 0.5, compat.KeyUnknown, compat.FunctionTonic},
	}

	for _, tc := range tests {
		t.Run(tc.from+"->"+tc.to, func(t *testing.T) {
			t.Parallel()

			got := compat.KeyCompat(tc.from, tc.to)
			assert.InDelta(t, tc.score, got.Score, 1e-9)
			assert.Equal(t, tc.rel, got.Relationship)
			assert.Equal(t, tc.fn, got.HarmonicFunction)
		})
	}
}

func TestKeyCompatTable(t *testing.T) {
	t.Parallel()

	for from := range compat.Key(compat.NumKeys) {
		self := compat.KeyCompatOf(from, from)
		assert.InDelta(t, 1.0, self.Score, 1e-9, "key %s", from)
		assert.Equal(t, compat.KeyPerfectMatch, self.Relationship, "key %s", from)

		for to := range compat.Key(compat.NumKeys) {
			forward := compat.KeyCompatOf(from, to)
			backward := compat.KeyCompatOf(to, from)
			assert.InDelta(t, forward.Score, backward.Score, 1e-9, "%s <-> %s", from, to)
			assert.GreaterOrEqual(t, forward.Score, 0.1)
			assert.LessOrEqual(t, forward.Score, 1.0)
			if from != to {
				assert.NotEqual(t, compat.KeyPerfectMatch, forward.Relationship, "%s -> %s", from, to)
			}
		}
	}
}

func TestKeyCompatRelativeAsymmetry(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{{"C", "Am"}, {"G", "Em"}, {"Eb", "Cm"}, {"F#", "D#m"}}
	for _, p := range pairs {
		majorToMinor := compat.KeyCompat(p[0], p[1])
		minorToMajor := compat.KeyCompat(p[1], p[0])
		assert.InDelta(t, 0.9, majorToMinor.Score, 1e-9)
		assert.InDelta(t, 0.9, minorToMajor.Score, 1e-9)
		assert.Equal(t, compat.KeyRelativeMinor, majorToMinor.Relationship)
		assert.Equal(t, compat.KeyRelativeMajor, minorToMajor.Relationship)
	}
}

func TestCompatibleKeys(t *testing.T) {
	t.Parallel()

	got := compat.CompatibleKeys(compat.MustParseKey("C"))
	names := make([]string, 0, len(got))
	for _, k := range got {
		names = append(names, k.String())
	}
	require.Len(t, names, 8)
	assert.Equal(t, "C", names[0])
	assert.Equal(t, "Am", names[1])
	assert.ElementsMatch(t, []string{"C", "Am", "G", "F", "D", "A#", "Em", "Dm"}, names)

	assert.Nil(t, compat.CompatibleKeys(compat.Key(-1)))
}
