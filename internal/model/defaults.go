package model

import "time"

// Shared defaults used by the engine, the TUI and the CLI.
const (
	DefaultPollInterval     = 50 * time.Millisecond
	DefaultMinPollInterval  = 10 * time.Millisecond
	DefaultMaxPollInterval  = 100 * time.Millisecond
	DefaultPollWindow       = 10
	DefaultAggregationLimit = 5
	DefaultSourceBuffer     = 10_000
	DefaultMaxLineSize      = 1024 * 1024 // 1MB
)
