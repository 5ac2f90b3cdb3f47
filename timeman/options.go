package timeman

import "fmt"

// Options are the tunable values read from the engine configuration
type Options struct {
	MinThinkingTime int  // ms, floor on both budgets
	MoveOverhead    int  // ms reserved per move for transport and bookkeeping
	SlowMover       int  // percent, weight of the current move against future ones
	Ponder          bool // thinking on the opponent's time, inflates the optimum by 1/4

	// Damping of the instability factor after easy moves
	EasyPercentOff1 int
	EasyPercentOff2 int

	TimeFactorPercent int // global scale applied to Available
}

// Tunable ranges
const (
	MinEasyPercentOff1   = 80
	MaxEasyPercentOff1   = 94
	MinEasyPercentOff2   = 50
	MaxEasyPercentOff2   = 79
	MinTimeFactorPercent = 70
	MaxTimeFactorPercent = 120
)

func DefaultOptions() Options {
	return Options{
		MinThinkingTime:   20,
		MoveOverhead:      30,
		SlowMover:         100,
		Ponder:            false,
		EasyPercentOff1:   87,
		EasyPercentOff2:   65,
		TimeFactorPercent: 80,
	}
}

// Validate reports the first option that is out of its range
func (o Options) Validate() error {
	if o.MinThinkingTime < 0 {
		return fmt.Errorf("minimum thinking time must not be negative, got %d", o.MinThinkingTime)
	}
	if o.MoveOverhead < 0 {
		return fmt.Errorf("move overhead must not be negative, got %d", o.MoveOverhead)
	}
	if o.SlowMover <= 0 {
		return fmt.Errorf("slow mover must be positive, got %d", o.SlowMover)
	}
	if o.EasyPercentOff1 < MinEasyPercentOff1 || o.EasyPercentOff1 > MaxEasyPercentOff1 {
		return fmt.Errorf("easy percent off 1 must be in [%d, %d], got %d",
			MinEasyPercentOff1, MaxEasyPercentOff1, o.EasyPercentOff1)
	}
	if o.EasyPercentOff2 < MinEasyPercentOff2 || o.EasyPercentOff2 > MaxEasyPercentOff2 {
		return fmt.Errorf("easy percent off 2 must be in [%d, %d], got %d",
			MinEasyPercentOff2, MaxEasyPercentOff2, o.EasyPercentOff2)
	}
	if o.TimeFactorPercent < MinTimeFactorPercent || o.TimeFactorPercent > MaxTimeFactorPercent {
		return fmt.Errorf("time factor percent must be in [%d, %d], got %d",
			MinTimeFactorPercent, MaxTimeFactorPercent, o.TimeFactorPercent)
	}
	return nil
}
