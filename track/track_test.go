package track_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/djmix/track"
)

func TestString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Artist A - Song", track.Track{ID: "1", Title: "Song", Artist: "Artist A"}.String())
	assert.Equal(t, "Song", track.Track{ID: "1", Title: "Song"}.String())
	assert.Equal(t, "1", track.Track{ID: "1"}.String())
}

func TestAccessorsOnNil(t *testing.T) {
	t.Parallel()

	assert.Equal(t, track.DefaultEnergy, track.EnergyOf(nil))
	assert.Equal(t, 0.0, track.BPMOf(nil))
	assert.Equal(t, "", track.KeyOf(nil))

	a := &track.Analysis{BPM: 128, Key: "Am", Energy: 0.8}
	assert.Equal(t, 0.8, track.EnergyOf(a))
	assert.Equal(t, 128.0, track.BPMOf(a))
	assert.Equal(t, "Am", track.KeyOf(a))
}
