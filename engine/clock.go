package engine

import (
	"chessclock/timeman"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrFlagged            = errors.New("flag fell")
	ErrInvalidTimeControl = errors.New("invalid time control")
)

// TimeControl in milliseconds. Moves is the number of moves per period, the
// base time is added again at the start of every period. 0 means the whole
// game is one period.
type TimeControl struct {
	Moves int
	Base  int
	Inc   int
}

// ParseTimeControl reads the "moves/seconds+increment" notation, where moves
// and increment are optional: "40/60+0.5", "60+1", "300".
func ParseTimeControl(s string) (TimeControl, error) {
	var tc TimeControl
	rest := strings.TrimSpace(s)
	if rest == "" {
		return tc, fmt.Errorf("%w: empty", ErrInvalidTimeControl)
	}

	if moves, after, found := strings.Cut(rest, "/"); found {
		n, err := strconv.Atoi(moves)
		if err != nil || n <= 0 {
			return tc, fmt.Errorf("%w: bad moves %q in %q", ErrInvalidTimeControl, moves, s)
		}
		tc.Moves = n
		rest = after
	}

	base, inc, found := strings.Cut(rest, "+")
	baseMs, err := parseSeconds(base)
	if err != nil || baseMs <= 0 {
		return tc, fmt.Errorf("%w: bad base time %q in %q", ErrInvalidTimeControl, base, s)
	}
	tc.Base = baseMs

	if found {
		incMs, err := parseSeconds(inc)
		if err != nil || incMs < 0 {
			return tc, fmt.Errorf("%w: bad increment %q in %q", ErrInvalidTimeControl, inc, s)
		}
		tc.Inc = incMs
	}
	return tc, nil
}

func parseSeconds(s string) (int, error) {
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("not a number of seconds: %q", s)
	}
	return int(math.Round(seconds * 1000)), nil
}

func (tc TimeControl) String() string {
	s := strconv.FormatFloat(float64(tc.Base)/1000, 'f', -1, 64)
	if tc.Moves > 0 {
		s = strconv.Itoa(tc.Moves) + "/" + s
	}
	if tc.Inc > 0 {
		s += "+" + strconv.FormatFloat(float64(tc.Inc)/1000, 'f', -1, 64)
	}
	return s
}

// Clock is a chess clock for both sides
type Clock struct {
	tc         TimeControl
	nodesPerMs int
	time       [timeman.ColorNB]int
	moves      [timeman.ColorNB]int
}

func NewClock(tc TimeControl, nodesPerMs int) *Clock {
	return &Clock{
		tc:         tc,
		nodesPerMs: nodesPerMs,
		time:       [timeman.ColorNB]int{tc.Base, tc.Base},
	}
}

func (c *Clock) TimeControl() TimeControl {
	return c.tc
}

func (c *Clock) Time(us timeman.Color) int {
	return c.time[us]
}

// Limits is the time control as seen by the side to move
func (c *Clock) Limits(us timeman.Color) timeman.Limits {
	movesToGo := 0
	if c.tc.Moves > 0 {
		movesToGo = c.tc.Moves - c.moves[us]%c.tc.Moves
	}
	return timeman.Limits{
		Time:       c.time,
		Inc:        [timeman.ColorNB]int{c.tc.Inc, c.tc.Inc},
		MovesToGo:  movesToGo,
		NodesPerMs: c.nodesPerMs,
	}
}

// Spent converts what the search reports as elapsed into milliseconds
func (c *Clock) Spent(elapsed int) int {
	if c.nodesPerMs > 0 {
		return elapsed / c.nodesPerMs
	}
	return elapsed
}

// Punch stops the clock of us after a move that took spent milliseconds
func (c *Clock) Punch(us timeman.Color, spent int) error {
	c.time[us] -= spent
	if c.time[us] < 0 {
		return fmt.Errorf("%w for %s after %d moves", ErrFlagged, us, c.moves[us])
	}

	c.time[us] += c.tc.Inc
	c.moves[us]++
	if c.tc.Moves > 0 && c.moves[us]%c.tc.Moves == 0 {
		c.time[us] += c.tc.Base
	}
	return nil
}
