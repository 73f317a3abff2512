package setplan

import (
	"fmt"
	"math"

	"github.com/xeptore/djmix/mathutil"
)

type EnergyCurve string

const (
	CurveRising  EnergyCurve = "rising"
	CurveFalling EnergyCurve = "falling"
	CurvePeak    EnergyCurve = "peak"
	CurveValley  EnergyCurve = "valley"
	CurveWave    EnergyCurve = "wave"
)

var EnergyCurves = []EnergyCurve{CurveRising, CurveFalling, CurvePeak, CurveValley, CurveWave}

const (
	DefaultLowEnergy  = 0.3
	DefaultHighEnergy = 0.8
	WaveAmplitude     = 0.15
	WaveCycles        = 2
)

func ParseEnergyCurve(s string) (EnergyCurve, error) {
	for _, c := range EnergyCurves {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown energy curve %q", s)
}

// bounds returns the curve's default start and end energy. Peak and valley
// read start as the edge level and end as the middle level.
func (c EnergyCurve) bounds() (start, end float64) {
	switch c {
	case CurveFalling, CurveValley:
		return DefaultHighEnergy, DefaultLowEnergy
	default:
		return DefaultLowEnergy, DefaultHighEnergy
	}
}

// Targets returns the target energy of each of n positions.
func (c EnergyCurve) Targets(n int, start, end *float64) []float64 {
	s, e := c.bounds()
	if nil != start {
		s = *start
	}
	if nil != end {
		e = *end
	}

	out := make([]float64, n)
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = mathutil.Unit(c.at(t, s, e))
	}
	return out
}

func (c EnergyCurve) at(t, start, end float64) float64 {
	switch c {
	case CurvePeak, CurveValley:
		return start + (end-start)*math.Sin(math.Pi*t)
	case CurveWave:
		return mathutil.Lerp(start, end, t) + WaveAmplitude*math.Sin(2*math.Pi*WaveCycles*t)
	default:
		return mathutil.Lerp(start, end, t)
	}
}
