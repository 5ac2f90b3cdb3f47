package main

import (
	"chessclock/searcher"
	"chessclock/timeman"
	"chessclock/utils"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagTime      int
	flagInc       int
	flagMovesToGo int
	flagNpmsec    int
	flagPhase     float64
	flagColor     string
	flagPonder    bool
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show the time budget for one move",
	Long: `Compute the optimum, maximum and available thinking time for a move
from the clock state. Times are in milliseconds, or in nodes with --npmsec.

Examples:
  chessclock budget --time 60000 --inc 1000
  chessclock budget --time 120000 --movestogo 10 --phase 0.8
  chessclock budget --time 60000 --npmsec 1000`,
	Args: cobra.NoArgs,
	RunE: runBudget,
}

func init() {
	budgetCmd.Flags().IntVar(&flagTime, "time", 60000, "Time left on our clock (ms)")
	budgetCmd.Flags().IntVar(&flagInc, "inc", 0, "Increment per move (ms)")
	budgetCmd.Flags().IntVar(&flagMovesToGo, "movestogo", 0, "Moves to the next time control (0 = sudden death)")
	budgetCmd.Flags().IntVar(&flagNpmsec, "npmsec", -1, "Nodes per ms for nodes as time (-1 = from config)")
	budgetCmd.Flags().Float64Var(&flagPhase, "phase", 0, "Game progress from 0 (opening) to 1 (endgame)")
	budgetCmd.Flags().StringVar(&flagColor, "color", "white", "Side to move (white or black)")
	budgetCmd.Flags().BoolVar(&flagPonder, "ponder", false, "Assume pondering")
}

func parseColor(s string) (timeman.Color, error) {
	names := []string{timeman.White.String(), timeman.Black.String()}
	i := utils.FindIndex(names, strings.ToLower(strings.TrimSpace(s)))
	if i < 0 {
		return timeman.White, fmt.Errorf("unknown color %q, expected white or black", s)
	}
	return timeman.Color(i), nil
}

func runBudget(cmd *cobra.Command, args []string) error {
	us, err := parseColor(flagColor)
	if err != nil {
		return err
	}
	npmsec := cfg.Time.NodesPerMs
	if flagNpmsec >= 0 {
		npmsec = flagNpmsec
	}
	options := cfg.TimeOptions()
	options.Ponder = options.Ponder || flagPonder

	limits := timeman.Limits{MovesToGo: flagMovesToGo, NodesPerMs: npmsec}
	limits.Time[us] = flagTime
	limits.Inc[us] = flagInc

	timer := timeman.NewManager(options, timeman.WithNodeCounter(&searcher.Counter{}))
	timer.Init(limits, us, flagPhase)

	unit := "ms"
	if npmsec > 0 {
		unit = "nodes"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Budget for %s\n", us)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-10s  %d %s\n", "Optimum", timer.Optimum(), unit)
	fmt.Fprintf(out, "  %-10s  %d %s\n", "Maximum", timer.Maximum(), unit)
	fmt.Fprintf(out, "  %-10s  %d %s\n", "Available", timer.Available(), unit)

	o := timer.Options()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Slow mover %d%%, move overhead %d ms, minimum %d ms, ponder %t\n",
		o.SlowMover, o.MoveOverhead, o.MinThinkingTime, o.Ponder)
	return nil
}
