// Package config loads the YAML configuration of the time manager and the
// search driver.
package config

import (
	"chessclock/searcher"
	"chessclock/timeman"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Time   TimeConfig   `yaml:"time"`
	Search SearchConfig `yaml:"search"`
	Log    LogConfig    `yaml:"log"`
}

// TimeConfig holds the time manager options
type TimeConfig struct {
	MinThinkingTime   int  `yaml:"min_thinking_time"`
	MoveOverhead      int  `yaml:"move_overhead"`
	SlowMover         int  `yaml:"slow_mover"`
	Ponder            bool `yaml:"ponder"`
	EasyPercentOff1   int  `yaml:"easy_percent_off1"`
	EasyPercentOff2   int  `yaml:"easy_percent_off2"`
	TimeFactorPercent int  `yaml:"time_factor_percent"`
	NodesPerMs        int  `yaml:"nodes_per_ms"` // 0 disables nodes as time
}

type SearchConfig struct {
	PollIntervalMs int  `yaml:"poll_interval_ms"`
	MaxDepth       int  `yaml:"max_depth"`
	Metrics        bool `yaml:"metrics"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Validate reports the first invalid value
func (c Config) Validate() error {
	if err := c.TimeOptions().Validate(); err != nil {
		return fmt.Errorf("invalid time config: %w", err)
	}
	if c.Time.NodesPerMs < 0 {
		return fmt.Errorf("invalid time config: nodes per ms must not be negative, got %d", c.Time.NodesPerMs)
	}
	if c.Search.PollIntervalMs < 0 {
		return fmt.Errorf("invalid search config: poll interval must not be negative, got %d", c.Search.PollIntervalMs)
	}
	if c.Search.MaxDepth < 0 {
		return fmt.Errorf("invalid search config: max depth must not be negative, got %d", c.Search.MaxDepth)
	}
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	return nil
}

func (c Config) TimeOptions() timeman.Options {
	return timeman.Options{
		MinThinkingTime:   c.Time.MinThinkingTime,
		MoveOverhead:      c.Time.MoveOverhead,
		SlowMover:         c.Time.SlowMover,
		Ponder:            c.Time.Ponder,
		EasyPercentOff1:   c.Time.EasyPercentOff1,
		EasyPercentOff2:   c.Time.EasyPercentOff2,
		TimeFactorPercent: c.Time.TimeFactorPercent,
	}
}

// SearchOptions converts the search config, zero values keep the searcher
// defaults
func (c Config) SearchOptions() []searcher.Option {
	options := []searcher.Option{
		searcher.WithPollInterval(time.Duration(c.Search.PollIntervalMs) * time.Millisecond),
		searcher.WithMaxDepth(c.Search.MaxDepth),
	}
	if c.Search.Metrics {
		options = append(options, searcher.WithMetrics())
	}
	return options
}

func (c Config) LogLevel() (zerolog.Level, error) {
	if c.Log.Level == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(c.Log.Level)
}
