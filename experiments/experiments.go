package experiments

import (
	"chessclock/engine"
	"chessclock/experiments/metrics"
	"chessclock/searcher"
	"chessclock/timeman"
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	NumGames   = 20  // Per match up
	NodesPerMs = 100 // Simulated search speed
)

// Setup is shared by every game of an experiment
type Setup struct {
	TimeControl engine.TimeControl
	NumGames    int
	Seed        uint64
	Lag         int    // ms charged to every move on top of the search
	Concurrency int    // Games played at once, 0 for the number of CPUs
	OutDir      string // CSV root directory, no CSV output if empty
	DBPath      string // SQLite database, no database output if empty
	Position    []PositionOption
}

func DefaultSetup() Setup {
	return Setup{
		TimeControl: engine.TimeControl{Base: 60000, Inc: 600},
		NumGames:    NumGames,
		Seed:        1,
		OutDir:      "experiments",
	}
}

// Standing is one agent's score over an experiment
type Standing struct {
	Agent        int
	Games        int
	Wins         int
	Flags        int
	Moves        int
	UsedPerMove  float64 // Average elapsed / optimum
	EarlyStopped int     // Moves stopped as easy or single reply
}

type Summary struct {
	Name      string
	Games     []metrics.GameRecord
	Moves     []metrics.MoveRecord
	Standings []Standing
	OutDir    string // Where the CSV files went, if anywhere
}

// RunSlowMoverExperiment pairs agents with different slow mover settings
// against the default one
func RunSlowMoverExperiment(ctx context.Context, setup Setup) (Summary, error) {
	baseline := metrics.AgentConfig{ID: 0, Options: timeman.DefaultOptions()}
	configs := []metrics.AgentConfig{}
	for i, slowMover := range []int{50, 80, 120, 200} {
		options := timeman.DefaultOptions()
		options.SlowMover = slowMover
		configs = append(configs, metrics.AgentConfig{ID: i + 1, Options: options})
	}

	matchUps := [][]metrics.AgentConfig{}
	for _, config := range configs {
		matchUps = append(matchUps, []metrics.AgentConfig{baseline, config})
	}

	return Run(ctx, "slow_mover", setup, append(configs, baseline), matchUps)
}

// RunOverheadExperiment plays agents with growing move overhead under a
// transport lag
func RunOverheadExperiment(ctx context.Context, setup Setup) (Summary, error) {
	if setup.Lag == 0 {
		setup.Lag = 50
	}
	configs := []metrics.AgentConfig{}
	for i, overhead := range []int{0, 30, 60, 120} {
		options := timeman.DefaultOptions()
		options.MoveOverhead = overhead
		configs = append(configs, metrics.AgentConfig{ID: i + 1, Options: options})
	}

	// Same config for both players in each game, only flags matter here
	matchUps := [][]metrics.AgentConfig{}
	for _, config := range configs {
		matchUps = append(matchUps, []metrics.AgentConfig{config, config})
	}

	return Run(ctx, "move_overhead", setup, configs, matchUps)
}

// Run plays setup.NumGames games for each match up and stores the records.
// Colors alternate between games of a match up.
func Run(ctx context.Context, name string, setup Setup, configs []metrics.AgentConfig, matchUps [][]metrics.AgentConfig) (Summary, error) {
	for _, config := range configs {
		if err := config.Options.Validate(); err != nil {
			return Summary{}, fmt.Errorf("agent %d: %w", config.ID, err)
		}
	}
	if setup.NumGames <= 0 {
		setup.NumGames = NumGames
	}
	concurrency := setup.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	log.Info().Msgf("starting %s experiment with %d match ups at %s...", name, len(matchUps), setup.TimeControl)

	var mu sync.Mutex
	summary := Summary{Name: name}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for mi, matchUp := range matchUps {
		for i := 0; i < setup.NumGames; i++ {
			mi, i := mi, i
			id := mi*setup.NumGames + i + 1
			white, black := matchUp[0], matchUp[1]
			if i%2 == 1 {
				white, black = black, white
			}

			g.Go(func() error {
				winner, game, moves, err := runGame(gctx, setup, setup.Seed+uint64(id), white, black)
				if err != nil {
					return fmt.Errorf("game %d: %w", id, err)
				}
				log.Debug().Msgf("completed match up %d of %d game %d with winner: %q", mi+1, len(matchUps), i+1, winner)

				mu.Lock()
				defer mu.Unlock()
				summary.Games = append(summary.Games, metrics.GameRecord{
					ID:         id,
					White:      white.ID,
					Black:      black.ID,
					GameMetric: game,
				})
				for _, mm := range moves {
					summary.Moves = append(summary.Moves, metrics.MoveRecord{Game: id, MoveMetric: mm})
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	sort.Slice(summary.Games, func(i, j int) bool { return summary.Games[i].ID < summary.Games[j].ID })
	sort.SliceStable(summary.Moves, func(i, j int) bool { return summary.Moves[i].Game < summary.Moves[j].Game })
	summary.Standings = standings(configs, summary.Games, summary.Moves)

	log.Info().Msgf("completed %s experiment", name)

	if err := store(name, setup, configs, &summary); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// runGame plays a single game between two agents and returns the winner
func runGame(ctx context.Context, setup Setup, seed uint64, white, black metrics.AgentConfig) (string, metrics.GameMetric, []metrics.MoveMetric, error) {
	// Both sides search the same kind of positions
	agents := []engine.Agent{
		&engine.SearchAgent{
			Searcher: searcher.NewSearcher(white.Options, searcher.WithMetrics()),
			Iterate:  NewPosition(seed, setup.Position...).Iterate,
		},
		&engine.SearchAgent{
			Searcher: searcher.NewSearcher(black.Options, searcher.WithMetrics()),
			Iterate:  NewPosition(seed, setup.Position...).Iterate,
		},
	}
	e := engine.NewEngine(setup.TimeControl, NodesPerMs, agents[0], agents[1], engine.WithLag(setup.Lag))

	return e.Run(ctx)
}

func standings(configs []metrics.AgentConfig, games []metrics.GameRecord, moves []metrics.MoveRecord) []Standing {
	byID := map[int]*Standing{}
	result := []Standing{}
	for _, config := range configs {
		byID[config.ID] = &Standing{Agent: config.ID}
	}

	players := map[int][2]int{} // Game ID to white and black agent
	for _, game := range games {
		players[game.ID] = [2]int{game.White, game.Black}
		for _, id := range []int{game.White, game.Black} {
			byID[id].Games++
		}
		switch game.Winner {
		case timeman.White.String():
			byID[game.White].Wins++
			byID[game.Black].Flags++
		case timeman.Black.String():
			byID[game.Black].Wins++
			byID[game.White].Flags++
		}
	}

	used := map[int]float64{}
	for _, move := range moves {
		side := 0
		if move.Player == timeman.Black.String() {
			side = 1
		}
		s := byID[players[move.Game][side]]
		s.Moves++
		if move.Optimum > 0 {
			used[s.Agent] += float64(move.Elapsed) / float64(move.Optimum)
		}
		if move.StoppedBy == string(searcher.StoppedByEasyMove) || move.StoppedBy == string(searcher.StoppedBySingleReply) {
			s.EarlyStopped++
		}
	}

	for _, config := range configs {
		s := byID[config.ID]
		if s.Moves > 0 {
			s.UsedPerMove = used[s.Agent] / float64(s.Moves)
		}
		result = append(result, *s)
	}
	return result
}

func store(name string, setup Setup, configs []metrics.AgentConfig, summary *Summary) error {
	if setup.OutDir != "" {
		writer, err := metrics.NewWriter(setup.OutDir, name)
		if err != nil {
			return fmt.Errorf("failed to create experiment writer: %w", err)
		}

		err = writer.WriteAgentConfigs(configs)
		if err != nil {
			return fmt.Errorf("failed to store agent configs: %w", err)
		}
		log.Info().Msg("stored agent configs")

		err = writer.WriteGameRecords(summary.Games)
		if err != nil {
			return fmt.Errorf("failed to write game records: %w", err)
		}
		log.Info().Msg("stored game records")

		err = writer.WriteMoveRecords(summary.Moves)
		if err != nil {
			return fmt.Errorf("failed to write move records: %w", err)
		}
		log.Info().Msg("stored move records")
		summary.OutDir = writer.Dir()
	}

	if setup.DBPath != "" {
		db, err := metrics.Open(setup.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := db.SaveExperiment(name, setup.TimeControl.String(), summary.Games, summary.Moves)
		if err != nil {
			return err
		}
		log.Info().Int64("experiment-id", id).Str("path", setup.DBPath).Msg("stored-experiment")
	}
	return nil
}
