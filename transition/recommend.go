package transition

// Category buckets transition length. Higher ranks give longer blends.
type Category string

const (
	CategoryShort  Category = "short"
	CategoryMedium Category = "medium"
	CategoryLong   Category = "long"
)

func (c Category) Rank() int {
	switch c {
	case CategoryLong:
		return 2
	case CategoryMedium:
		return 1
	default:
		return 0
	}
}

type Recommendation struct {
	Type     Type     `json:"transition_type"`
	Category Category `json:"category"`
	Bars     int      `json:"bars"`
}

// Seconds converts the recommended length to seconds at bpm. Non-positive
// bpm counts as the default tempo.
func (r Recommendation) Seconds(bpm float64) float64 {
	if bpm <= 0 {
		bpm = 120
	}
	return float64(r.Bars*BeatsPerBar) * 60 / bpm
}

// Recommend picks a transition archetype from the three sub-scores alone.
// Raising any score never shortens the category, and strong tempo and key
// agreement always yields a harmonic or beatmatched blend.
func Recommend(bpm, key, energy float64) Recommendation {
	overall := Aggregate(bpm, key, energy)

	switch {
	case (bpm >= 0.8 && key >= 0.8) || overall >= 0.8:
		if key >= bpm {
			return Recommendation{Type: TypeHarmonic, Category: CategoryLong, Bars: 16}
		}
		return Recommendation{Type: TypeBeatmatch, Category: CategoryLong, Bars: 16}
	case bpm >= 0.8:
		return Recommendation{Type: TypeBeatmatch, Category: CategoryMedium, Bars: 8}
	case key >= 0.8:
		return Recommendation{Type: TypeHarmonic, Category: CategoryMedium, Bars: 8}
	case overall >= 0.65:
		return Recommendation{Type: TypeCrossfade, Category: CategoryMedium, Bars: 8}
	case overall >= 0.5:
		return Recommendation{Type: TypeFilterSweep, Category: CategoryMedium, Bars: 8}
	case overall >= 0.3:
		return Recommendation{Type: TypeEchoOut, Category: CategoryShort, Bars: 4}
	default:
		return Recommendation{Type: TypeCut, Category: CategoryShort, Bars: 1}
	}
}
