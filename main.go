// chessclock computes per-move thinking time budgets and simulates games on a
// chess clock to compare time manager settings.
//
// Usage:
//
//	chessclock budget --time 60000 --inc 1000     - Budget for one move
//	chessclock simulate --tc 60+0.6 --games 20    - Play simulated games
//	chessclock records --db records.db            - Show stored move records
//	chessclock serve --addr :8080                 - Serve a search agent over HTTP
package main

import (
	"chessclock/config"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagConfig   string
	flagLogLevel string

	cfg config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chessclock",
	Short: "Time budgets for a chess engine search",
	Long: `chessclock decides how long a chess engine should think about a move
out of the time left on its clock, and simulates games to tune that decision.

Examples:
  chessclock budget --time 60000 --inc 1000
  chessclock budget --time 300000 --movestogo 20 --phase 0.5 --color black
  chessclock simulate --tc 40/60+0.5 --games 10 --db ~/.chessclock/records.db
  chessclock records --db ~/.chessclock/records.db
  chessclock serve --addr :8080`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level, overrides the config (trace, debug, info, warn, error)")

	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads the configuration and the logger before any command runs
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	return nil
}
