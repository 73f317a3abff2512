package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/xeptore/djmix/cache"
	"github.com/xeptore/djmix/queue"
	"github.com/xeptore/djmix/session"
	"github.com/xeptore/djmix/setplan"
	"github.com/xeptore/djmix/transition"
)

type Config struct {
	LogLevel string `json:"log_level" yaml:"log_level"`
	// Library is the track library file. The --library flag overrides it.
	Library    string             `json:"library"    yaml:"library"`
	Transition transition.Options `json:"transition" yaml:"transition"`
	Set        setplan.Options    `json:"set"        yaml:"set"`
	Queue      queue.Config       `json:"queue"      yaml:"queue"`
	Session    Session            `json:"session"    yaml:"session"`
	Analysis   Analysis           `json:"analysis"   yaml:"analysis"`
}

type Session struct {
	HistoryLimit int `json:"history_limit" yaml:"history_limit"`
}

type Analysis struct {
	CacheSize           int64         `json:"cache_size"           yaml:"cache_size"`
	CacheTTL            time.Duration `json:"cache_ttl"            yaml:"cache_ttl"`
	PrefetchConcurrency int           `json:"prefetch_concurrency" yaml:"prefetch_concurrency"`
	LookupTimeout       time.Duration `json:"lookup_timeout"       yaml:"lookup_timeout"`
	MaxRetries          uint64        `json:"max_retries"          yaml:"max_retries"`
	RetryMaxElapsed     time.Duration `json:"retry_max_elapsed"    yaml:"retry_max_elapsed"`
}

func Default() Config {
	return Config{
		LogLevel:   "info",
		Library:    "",
		Transition: transition.DefaultOptions(),
		Set: setplan.Options{
			MaxSongs:    0,
			Curve:       setplan.CurveRising,
			StartEnergy: nil,
			EndEnergy:   nil,
			KeyMode:     setplan.KeyModeHarmonic,
			Genres:      nil,
			BPMRange:    nil,
		},
		Queue: queue.DefaultConfig(),
		Session: Session{
			HistoryLimit: session.DefaultHistoryLimit,
		},
		Analysis: Analysis{
			CacheSize:           cache.DefaultAnalysisMaxSize,
			CacheTTL:            cache.DefaultAnalysisTTL,
			PrefetchConcurrency: PrefetchConcurrency,
			LookupTimeout:       AnalysisLookupTimeout,
			MaxRetries:          AnalysisMaxRetries,
			RetryMaxElapsed:     AnalysisRetryMaxElapsed,
		},
	}
}

// SessionConfig assembles the session manager config from the queue and
// session sections.
func (cfg *Config) SessionConfig() session.Config {
	return session.Config{
		Queue:        cfg.Queue,
		HistoryLimit: cfg.Session.HistoryLimit,
	}
}

func (cfg *Config) validate() error {
	if c := cfg.Transition.Curve; c != "" && !lo.Contains(transition.Curves, c) {
		return fmt.Errorf("unknown transition curve %q", c)
	}
	if cfg.Transition.BaseDuration < 0 {
		return errors.New("transition base duration must not be negative")
	}
	if cfg.Transition.SampleRate < 0 {
		return errors.New("transition sample rate must not be negative")
	}
	if err := cfg.Set.Validate(); nil != err {
		return fmt.Errorf("invalid set section: %v", err)
	}
	if err := cfg.Queue.Validate(); nil != err {
		return fmt.Errorf("invalid queue section: %v", err)
	}
	if cfg.Session.HistoryLimit < 0 {
		return errors.New("session history limit must not be negative")
	}
	if cfg.Analysis.CacheSize <= 0 {
		return errors.New("analysis cache size must be positive")
	}
	if cfg.Analysis.CacheTTL <= 0 {
		return errors.New("analysis cache ttl must be positive")
	}
	if cfg.Analysis.LookupTimeout < 0 {
		return errors.New("analysis lookup timeout must not be negative")
	}
	return nil
}

func FromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if nil != err {
		return nil, fmt.Errorf("failed to read config file %q: %v", filePath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config file %q: %v", filePath, err)
	}

	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return &cfg, nil
}

func FromString(data string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(data), &cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return &cfg, nil
}
