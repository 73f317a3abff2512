package config

import "time"

var (
	AnalysisLookupTimeout          = 5 * time.Second
	AnalysisRetryMaxElapsed        = 15 * time.Second
	AnalysisMaxRetries      uint64 = 2
	PrefetchConcurrency            = 8
	RecommendationLimit            = 10
)
