package track

import (
	"github.com/rs/zerolog"
)

// Track is catalog metadata. Duration is in seconds.
type Track struct {
	ID       string  `json:"id"       yaml:"id"`
	Title    string  `json:"title"    yaml:"title"`
	Artist   string  `json:"artist"   yaml:"artist"`
	Album    string  `json:"album"    yaml:"album"`
	Genre    string  `json:"genre"    yaml:"genre"`
	Duration float64 `json:"duration" yaml:"duration"`
}

func (t Track) Log(e *zerolog.Event) {
	e.
		Str("track_id", t.ID).
		Str("title", t.Title).
		Str("artist", t.Artist)
}

func (t Track) String() string {
	switch {
	case t.Artist != "" && t.Title != "":
		return t.Artist + " - " + t.Title
	case t.Title != "":
		return t.Title
	default:
		return t.ID
	}
}

// Analysis holds the per-track audio features supplied by an external
// analyzer. Normalized features are in [0, 1]; Loudness is in dB.
type Analysis struct {
	BPM              float64 `json:"bpm"`
	Key              string  `json:"key"`
	Energy           float64 `json:"energy"`
	Danceability     float64 `json:"danceability"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Loudness         float64 `json:"loudness"`
	TempoConfidence  float64 `json:"tempo_confidence"`
	KeyConfidence    float64 `json:"key_confidence"`
}

const (
	DefaultBPM    = 120.0
	DefaultEnergy = 0.5
)

// EnergyOf returns the analysis energy, or DefaultEnergy when a is nil.
func EnergyOf(a *Analysis) float64 {
	if nil == a {
		return DefaultEnergy
	}
	return a.Energy
}

// BPMOf returns the analysis BPM, or 0 when unknown.
func BPMOf(a *Analysis) float64 {
	if nil == a {
		return 0
	}
	return a.BPM
}

func KeyOf(a *Analysis) string {
	if nil == a {
		return ""
	}
	return a.Key
}

// WithAnalysis pairs a track with its optional analysis.
type WithAnalysis struct {
	Track    Track
	Analysis *Analysis
}
