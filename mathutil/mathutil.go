package mathutil

import (
	"math"

	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer | constraints.Float
}

func Clamp[T Number](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Unit clamps v into [0, 1].
func Unit(v float64) float64 {
	return Clamp(v, 0, 1)
}

func Lerp(from, to, t float64) float64 {
	return from + (to-from)*t
}

// Mean returns 0 for an empty input.
func Mean[T Number](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// PercentDiff is |a-b| relative to ref, in percent.
func PercentDiff(a, b, ref float64) float64 {
	return math.Abs(a-b) / ref * 100
}
