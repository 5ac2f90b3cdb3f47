package main

import (
	"chessclock/engine"
	"chessclock/experiments"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagTimeControl string
	flagGames       int
	flagSeed        uint64
	flagOut         string
	flagDBPath      string
	flagLag         int
	flagConcurrency int
	flagExperiment  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play simulated games between time manager settings",
	Long: `Play games on a chess clock between agents that only differ in their
time manager settings. Searches are simulated and counted in nodes, so a seed
reproduces the same games.

Experiments:
  slow-mover  - Slow mover settings against the default
  overhead    - Move overhead settings under a transport lag

Examples:
  chessclock simulate --tc 60+0.6 --games 20
  chessclock simulate --experiment overhead --lag 80 --db ~/.chessclock/records.db`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&flagTimeControl, "tc", "60+0.6", "Time control as [moves/]seconds[+increment]")
	simulateCmd.Flags().IntVar(&flagGames, "games", experiments.NumGames, "Games per match up")
	simulateCmd.Flags().Uint64Var(&flagSeed, "seed", 1, "Seed of the simulated searches")
	simulateCmd.Flags().StringVar(&flagOut, "out", "experiments", "CSV output directory (empty to skip)")
	simulateCmd.Flags().StringVar(&flagDBPath, "db", "", "SQLite database to store the records in")
	simulateCmd.Flags().IntVar(&flagLag, "lag", 0, "Transport lag charged to every move (ms)")
	simulateCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Games played at once (0 = number of CPUs)")
	simulateCmd.Flags().StringVar(&flagExperiment, "experiment", "slow-mover", "Experiment to run (slow-mover, overhead)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	tc, err := engine.ParseTimeControl(flagTimeControl)
	if err != nil {
		return err
	}

	setup := experiments.DefaultSetup()
	setup.TimeControl = tc
	setup.NumGames = flagGames
	setup.Seed = flagSeed
	setup.OutDir = flagOut
	setup.DBPath = flagDBPath
	setup.Lag = flagLag
	setup.Concurrency = flagConcurrency

	var summary experiments.Summary
	switch flagExperiment {
	case "slow-mover":
		summary, err = experiments.RunSlowMoverExperiment(cmd.Context(), setup)
	case "overhead":
		summary, err = experiments.RunOverheadExperiment(cmd.Context(), setup)
	default:
		return fmt.Errorf("unknown experiment %q", flagExperiment)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s at %s, %d games\n", summary.Name, tc, len(summary.Games))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-5s  %-5s  %-4s  %-5s  %-6s  %-9s  %s\n", "Agent", "Games", "Wins", "Flags", "Moves", "Used/Opt", "Early")
	fmt.Fprintf(out, "  %-5s  %-5s  %-4s  %-5s  %-6s  %-9s  %s\n", "-----", "-----", "----", "-----", "-----", "--------", "-----")
	for _, s := range summary.Standings {
		fmt.Fprintf(out, "  %-5d  %-5d  %-4d  %-5d  %-6d  %-9.2f  %d\n", s.Agent, s.Games, s.Wins, s.Flags, s.Moves, s.UsedPerMove, s.EarlyStopped)
	}
	if summary.OutDir != "" {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Records written to %s\n", summary.OutDir)
	}
	return nil
}
