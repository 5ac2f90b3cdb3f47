package main

import (
	"chessclock/experiments/metrics"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagRecordsDB string
	flagLimit     int
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Show the last stored move records",
	Long: `Display the most recent moves stored by 'chessclock simulate --db'.

Examples:
  chessclock records --db ~/.chessclock/records.db
  chessclock records --db records.db --limit 50`,
	Args: cobra.NoArgs,
	RunE: runRecords,
}

func init() {
	recordsCmd.Flags().StringVar(&flagRecordsDB, "db", "~/.chessclock/records.db", "SQLite database with the records")
	recordsCmd.Flags().IntVar(&flagLimit, "limit", 20, "Number of moves to show")
}

func runRecords(cmd *cobra.Command, args []string) error {
	store, err := metrics.Open(flagRecordsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	moves, err := store.RecentMoves(flagLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(moves) == 0 {
		fmt.Fprintln(out, "No records stored yet.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run 'chessclock simulate --db <path>' to record games.")
		return nil
	}

	fmt.Fprintf(out, "  %-5s  %-4s  %-6s  %-8s  %-8s  %-8s  %-8s  %-5s  %s\n",
		"Game", "Step", "Player", "Clock", "Optimum", "Maximum", "Elapsed", "Depth", "Stopped by")
	for _, m := range moves {
		fmt.Fprintf(out, "  %-5d  %-4d  %-6s  %-8d  %-8d  %-8d  %-8d  %-5d  %s\n",
			m.Game, m.Step, m.Player, m.ClockBefore, m.Optimum, m.Maximum, m.Elapsed, m.Depth, m.StoppedBy)
	}
	return nil
}
