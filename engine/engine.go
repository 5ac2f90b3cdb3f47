package engine

import (
	"chessclock/experiments/metrics"
	"chessclock/searcher"
	"chessclock/timeman"
	"chessclock/utils"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	MaxPlies   = 400
	PhasePlies = 120 // Game phase reaches 1 at this ply
)

type Agent interface {
	// FindMove searches the current position under the given limits
	FindMove(ctx context.Context, limits timeman.Limits, us timeman.Color, phase float64) (searcher.Result, error)
	NewGame()
}

type Option func(e *Engine)

// Engine plays a game between two agents on a chess clock. Positions are not
// modelled, only the time each move takes.
type Engine struct {
	clock    *Clock
	agents   [timeman.ColorNB]Agent
	lag      int
	maxPlies int
}

// WithLag charges ms of transport delay to every move on top of the search
func WithLag(ms int) Option {
	return func(e *Engine) {
		if ms > 0 {
			e.lag = ms
		}
	}
}

func WithMaxPlies(plies int) Option {
	return func(e *Engine) {
		if plies > 0 {
			e.maxPlies = plies
		}
	}
}

func NewEngine(tc TimeControl, nodesPerMs int, white, black Agent, options ...Option) *Engine {
	if white == nil || black == nil {
		panic("engine needs two agents")
	}
	e := &Engine{
		clock:    NewClock(tc, nodesPerMs),
		agents:   [timeman.ColorNB]Agent{white, black},
		maxPlies: MaxPlies,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *Engine) Clock() *Clock {
	return e.clock
}

// Phase is the progress of the game at ply, from 0 at the start to 1
func Phase(ply int) float64 {
	return utils.Clamp(float64(ply)/PhasePlies, 0, 1)
}

// Run plays until a flag falls or the ply limit is reached. The winner is the
// opponent of the flagged side, "" when no flag fell.
func (e *Engine) Run(ctx context.Context) (string, metrics.GameMetric, []metrics.MoveMetric, error) {
	game := metrics.GameMetric{
		TimeControl: e.clock.TimeControl().String(),
		StartTime:   time.Now(),
	}
	var moves []metrics.MoveMetric
	for _, agent := range e.agents {
		agent.NewGame()
	}

	log.Debug().Msgf("starting game at %s", game.TimeControl)

	for ply := 0; ply < e.maxPlies; ply++ {
		if err := ctx.Err(); err != nil {
			return "", e.finish(game, moves), moves, err
		}

		us := timeman.Color(ply % 2)
		before := e.clock.Time(us)
		result, err := e.agents[us].FindMove(ctx, e.clock.Limits(us), us, Phase(ply))
		if err != nil {
			return "", e.finish(game, moves), moves, fmt.Errorf("%s failed to move at ply %d: %w", us, ply, err)
		}

		err = e.clock.Punch(us, e.clock.Spent(result.Elapsed)+e.lag)
		moves = append(moves, metrics.MoveMetric{
			Step:         ply + 1,
			Player:       us.String(),
			ClockBefore:  before,
			ClockAfter:   e.clock.Time(us),
			Optimum:      result.Optimum,
			Maximum:      result.Maximum,
			Available:    result.Available,
			Elapsed:      result.Elapsed,
			Depth:        result.Depth,
			Nodes:        result.Nodes,
			StoppedBy:    string(result.StoppedBy),
			SearchMetric: result.Metric,
		})

		if errors.Is(err, ErrFlagged) {
			log.Info().Msgf("%s lost on time at ply %d", us, ply+1)
			game.Flagged = us.String()
			game.Winner = us.Opponent().String()
			break
		}
	}

	return game.Winner, e.finish(game, moves), moves, nil
}

func (e *Engine) finish(game metrics.GameMetric, moves []metrics.MoveMetric) metrics.GameMetric {
	game.EndTime = time.Now()
	game.Duration = game.EndTime.Sub(game.StartTime)
	game.TotalMoves = len(moves)
	return game
}

// SearchAgent moves with a budgeted iterative deepening search
type SearchAgent struct {
	Searcher *searcher.Searcher
	Iterate  searcher.IterateFunc
}

func (a *SearchAgent) FindMove(ctx context.Context, limits timeman.Limits, us timeman.Color, phase float64) (searcher.Result, error) {
	return a.Searcher.Search(ctx, limits, us, phase, a.Iterate)
}

func (a *SearchAgent) NewGame() {
	a.Searcher.NewGame()
}
