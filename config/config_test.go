package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/djmix/config"
	"github.com/xeptore/djmix/queue"
	"github.com/xeptore/djmix/setplan"
	"github.com/xeptore/djmix/transition"
)

func TestFromString(t *testing.T) {
	t.Parallel()

	t.Run("EmptyKeepsDefaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.FromString("")
		require.NoError(t, err)
		assert.Equal(t, config.Default(), *cfg)
	})

	t.Run("PartialOverride", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.FromString(`
log_level: debug
library: tracks.json
transition:
  curve: s-curve
  key_lock: false
set:
  energy_curve: peak
  max_songs: 12
  start_energy: 0.4
  bpm_range:
    min: 118
    max: 130
queue:
  max_queue_size: 20
  auto_refill: true
  auto_mix:
    strategy: harmonic
    min_compatibility: 0.7
session:
  history_limit: 3
analysis:
  cache_ttl: 30m
  lookup_timeout: 2s
`)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "tracks.json", cfg.Library)
		assert.Equal(t, transition.CurveSCurve, cfg.Transition.Curve)
		assert.False(t, cfg.Transition.KeyLock)
		assert.InDelta(t, transition.DefaultBase, cfg.Transition.BaseDuration, 1e-12)

		assert.Equal(t, setplan.CurvePeak, cfg.Set.Curve)
		assert.Equal(t, setplan.KeyModeHarmonic, cfg.Set.KeyMode)
		assert.Equal(t, 12, cfg.Set.MaxSongs)
		require.NotNil(t, cfg.Set.StartEnergy)
		assert.InDelta(t, 0.4, *cfg.Set.StartEnergy, 1e-12)
		assert.Nil(t, cfg.Set.EndEnergy)
		assert.Equal(t, &setplan.BPMRange{Min: 118, Max: 130}, cfg.Set.BPMRange)

		assert.Equal(t, 20, cfg.Queue.MaxQueueSize)
		assert.True(t, cfg.Queue.AutoRefill)
		assert.True(t, cfg.Queue.DuplicatePrevention)
		assert.Equal(t, queue.StrategyHarmonic, cfg.Queue.AutoMix.Strategy)
		assert.InDelta(t, 0.7, cfg.Queue.AutoMix.MinCompatibility, 1e-12)

		sessionCfg := cfg.SessionConfig()
		assert.Equal(t, 3, sessionCfg.HistoryLimit)
		assert.Equal(t, cfg.Queue, sessionCfg.Queue)

		assert.Equal(t, 30*time.Minute, cfg.Analysis.CacheTTL)
		assert.Equal(t, 2*time.Second, cfg.Analysis.LookupTimeout)
		assert.Equal(t, config.Default().Analysis.CacheSize, cfg.Analysis.CacheSize)
	})

	t.Run("Invalid", func(t *testing.T) {
		t.Parallel()

		cases := map[string]string{
			"Syntax":             "queue: [",
			"TransitionCurve":    "transition:\n  curve: wobble\n",
			"SetCurve":           "set:\n  energy_curve: zigzag\n",
			"SetEnergy":          "set:\n  end_energy: 1.5\n",
			"QueueSize":          "queue:\n  max_queue_size: 0\n",
			"Strategy":           "queue:\n  auto_mix:\n    strategy: chaos\n",
			"MinCompatibility":   "queue:\n  auto_mix:\n    min_compatibility: 2\n",
			"CacheSize":          "analysis:\n  cache_size: 0\n",
			"CacheTTL":           "analysis:\n  cache_ttl: 0s\n",
			"NegativeHistory":    "session:\n  history_limit: -1\n",
			"NegativeSampleRate": "transition:\n  sample_rate: -1\n",
		}
		for name, data := range cases {
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				_, err := config.FromString(data)
				require.Error(t, err)
			})
		}
	})
}

func TestFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filePath := filepath.Join(dir, "djmix.yml")
	require.NoError(t, os.WriteFile(filePath, []byte("queue:\n  refill_count: 9\n"), 0o0600))

	cfg, err := config.FromFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Queue.RefillCount)

	_, err = config.FromFile(filepath.Join(dir, "missing.yml"))
	require.Error(t, err)
}
