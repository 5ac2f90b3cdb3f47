package config

import (
	"chessclock/searcher"
	"chessclock/timeman"
	_ "embed"
)

//go:embed defaults/chessclock.yaml
var defaultYAML []byte

// Default returns the built in configuration
func Default() Config {
	options := timeman.DefaultOptions()
	return Config{
		Time: TimeConfig{
			MinThinkingTime:   options.MinThinkingTime,
			MoveOverhead:      options.MoveOverhead,
			SlowMover:         options.SlowMover,
			Ponder:            options.Ponder,
			EasyPercentOff1:   options.EasyPercentOff1,
			EasyPercentOff2:   options.EasyPercentOff2,
			TimeFactorPercent: options.TimeFactorPercent,
		},
		Search: SearchConfig{
			PollIntervalMs: int(searcher.DefaultPollInterval.Milliseconds()),
			MaxDepth:       searcher.DefaultMaxDepth,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
