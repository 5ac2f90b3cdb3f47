package main

import (
	"chessclock/engine"
	"chessclock/experiments"
	"chessclock/searcher"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagAddr      string
	flagServeSeed uint64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a simulated search agent over HTTP",
	Long: `Start an agent server that answers POST /findmove with a budgeted
simulated search, so games can be played against a remote process.

Examples:
  chessclock serve --addr :8080
  chessclock serve --addr 127.0.0.1:9000 --seed 7`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8080", "Address to listen on")
	serveCmd.Flags().Uint64Var(&flagServeSeed, "seed", 1, "Seed of the simulated searches")
}

func runServe(cmd *cobra.Command, args []string) error {
	agent := &engine.SearchAgent{
		Searcher: searcher.NewSearcher(cfg.TimeOptions(), cfg.SearchOptions()...),
		Iterate:  experiments.NewPosition(flagServeSeed).Iterate,
	}
	server := &http.Server{
		Addr:              flagAddr,
		Handler:           engine.NewAgentServer(agent).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx := cmd.Context()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", flagAddr).Msg("agent-server-listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
