package queue

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/xeptore/djmix/setplan"
)

// Strategy selects how auto-mix recommendations weigh the sub-scores.
type Strategy string

const (
	StrategyBalanced Strategy = "balanced"
	StrategyHarmonic Strategy = "harmonic"
	StrategyTempo    Strategy = "tempo"
	StrategyEnergy   Strategy = "energy"
)

var Strategies = []Strategy{StrategyBalanced, StrategyHarmonic, StrategyTempo, StrategyEnergy}

type AutoMixOptions struct {
	Strategy         Strategy          `json:"strategy"          yaml:"strategy"`
	MinCompatibility float64           `json:"min_compatibility" yaml:"min_compatibility"`
	BPMRange         *setplan.BPMRange `json:"bpm_range"         yaml:"bpm_range"`
}

type Config struct {
	MaxQueueSize        int            `json:"max_queue_size"       yaml:"max_queue_size"`
	AutoMixEnabled      bool           `json:"auto_mix_enabled"     yaml:"auto_mix_enabled"`
	DuplicatePrevention bool           `json:"duplicate_prevention" yaml:"duplicate_prevention"`
	AutoRefill          bool           `json:"auto_refill"          yaml:"auto_refill"`
	RefillCount         int            `json:"refill_count"         yaml:"refill_count"`
	EventHistoryLimit   int            `json:"event_history_limit"  yaml:"event_history_limit"`
	AutoMix             AutoMixOptions `json:"auto_mix"             yaml:"auto_mix"`
}

func DefaultConfig() Config {
	return Config{
		MaxQueueSize:        50,
		AutoMixEnabled:      true,
		DuplicatePrevention: true,
		AutoRefill:          false,
		RefillCount:         5,
		EventHistoryLimit:   500,
		AutoMix: AutoMixOptions{
			Strategy:         StrategyBalanced,
			MinCompatibility: 0.5,
			BPMRange:         nil,
		},
	}
}

func (c Config) Validate() error {
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("max queue size must be positive, got %d", c.MaxQueueSize)
	}
	if c.RefillCount < 0 {
		return fmt.Errorf("refill count must not be negative, got %d", c.RefillCount)
	}
	if c.EventHistoryLimit <= 0 {
		return fmt.Errorf("event history limit must be positive, got %d", c.EventHistoryLimit)
	}
	if s := c.AutoMix.Strategy; s != "" && !lo.Contains(Strategies, s) {
		return fmt.Errorf("unknown auto mix strategy %q", s)
	}
	if v := c.AutoMix.MinCompatibility; v < 0 || v > 1 {
		return fmt.Errorf("min compatibility must be within [0, 1], got %v", v)
	}
	if r := c.AutoMix.BPMRange; nil != r && r.Max > 0 && r.Min > r.Max {
		return errors.New("auto mix bpm range min exceeds max")
	}
	return nil
}
