package transition

import (
	"fmt"
	"math"

	"github.com/xeptore/djmix/mathutil"
)

// Curve is the crossfade volume shape. Every curve maps progress 0 to 0 and
// progress 1 to 1.
type Curve string

const (
	CurveLinear      Curve = "linear"
	CurveExponential Curve = "exponential"
	CurveLogarithmic Curve = "logarithmic"
	CurveSCurve      Curve = "s-curve"
)

var Curves = []Curve{CurveLinear, CurveExponential, CurveLogarithmic, CurveSCurve}

func ParseCurve(s string) (Curve, error) {
	for _, c := range Curves {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown crossfade curve %q", s)
}

// Apply maps progress, clamped to [0, 1], through the curve. Unknown curves
// behave as linear.
func (c Curve) Apply(progress float64) float64 {
	p := mathutil.Unit(progress)
	switch c {
	case CurveExponential:
		return p * p
	case CurveLogarithmic:
		return math.Sqrt(p)
	case CurveSCurve:
		return (1 - math.Cos(math.Pi*p)) / 2
	default:
		return p
	}
}

// samples evaluates f at n evenly spaced progress points from 0 to 1
// inclusive, n >= 2.
func samples(n int, f func(progress float64) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(float64(i) / float64(n-1))
	}
	return out
}

func sampleCount(duration, rate float64) int {
	return max(2, int(math.Round(duration*rate)))
}

// breakdownFloor is the energy a breakdown decays toward.
const breakdownFloor = 0.05

func energyAt(t Type, current, target, p float64) float64 {
	switch t {
	case TypeEnergyBuildup:
		return current + (target-current)*math.Sqrt(p)
	case TypeBreakdown:
		return current*(1-p) + breakdownFloor*p
	case TypeBeatmatch:
		return max(current, target)
	default:
		return mathutil.Lerp(current, target, p)
	}
}

func hasFilter(t Type) bool {
	return t == TypeEnergyBuildup || t == TypeBreakdown
}

// filterAt is the filter cutoff, 0 closed and 1 open. Buildups sweep low to
// high, breakdowns high to low.
func filterAt(t Type, p float64) float64 {
	if t == TypeBreakdown {
		return 1 - p
	}
	return p
}
