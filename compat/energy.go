package compat

import (
	"math"

	"github.com/xeptore/djmix/mathutil"
	"github.com/xeptore/djmix/track"
)

type EnergyDirection string

const (
	EnergyRising  EnergyDirection = "rising"
	EnergyFalling EnergyDirection = "falling"
	EnergySteady  EnergyDirection = "steady"
)

type EnergyHint string

const (
	HintBuildUp  EnergyHint = "build_up"
	HintMaintain EnergyHint = "maintain"
	HintCooldown EnergyHint = "cooldown"
)

// EnergyMargin is the minimum difference counted as a rise or a fall.
const EnergyMargin = 0.1

// EnergyJumpLimit is the largest energy step that carries no alignment penalty.
const EnergyJumpLimit = 0.3

var directionAlignment = map[EnergyDirection]float64{
	EnergyRising:  0.85,
	EnergySteady:  0.75,
	EnergyFalling: 0.6,
}

type EnergyFlow struct {
	Current   float64         `json:"current_energy"`
	Target    float64         `json:"target_energy"`
	Direction EnergyDirection `json:"energy_direction"`
	Hint      EnergyHint      `json:"transition_type"`
	Alignment float64         `json:"alignment"`
}

// Energy classifies the move from current to target. Missing analyses count
// as track.DefaultEnergy.
func Energy(current, target *track.Analysis) EnergyFlow {
	return EnergyBetween(track.EnergyOf(current), track.EnergyOf(target))
}

func EnergyBetween(current, target float64) EnergyFlow {
	dir := EnergyDirectionOf(current, target)
	jump := math.Abs(target - current)
	return EnergyFlow{
		Current:   current,
		Target:    target,
		Direction: dir,
		Hint:      hintOf(dir),
		Alignment: mathutil.Unit(directionAlignment[dir] - max(0, jump-EnergyJumpLimit)),
	}
}

func EnergyDirectionOf(current, target float64) EnergyDirection {
	switch {
	case target > current+EnergyMargin:
		return EnergyRising
	case target < current-EnergyMargin:
		return EnergyFalling
	default:
		return EnergySteady
	}
}

func hintOf(dir EnergyDirection) EnergyHint {
	switch dir {
	case EnergyRising:
		return HintBuildUp
	case EnergySteady:
		return HintMaintain
	default:
		return HintCooldown
	}
}
