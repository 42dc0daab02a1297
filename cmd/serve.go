package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/connections/internal/fixtures"
	"github.com/robalobadob/connections/internal/httpserver"
)

var servePort string

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local dev authority",
		Long: `Serve puzzles from PUZZLES_FILE (or the built-in set) over the same HTTP
API the client plays against. Intended for local play and tests.
When PUZZLES_FILE is set, edits to it are picked up without a restart.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	puzzles, err := fixtures.Load()
	if err != nil {
		return fmt.Errorf("load puzzles: %w", err)
	}

	port := cfg.Port
	if servePort != "" {
		port = servePort
	}
	catalog := fixtures.NewCatalog(puzzles)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpserver.New(catalog).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	if path := os.Getenv("PUZZLES_FILE"); path != "" {
		g.Go(func() error { return fixtures.Watch(ctx, path, catalog) })
	}
	g.Go(func() error {
		log.Info().Str("port", port).Int("puzzles", len(puzzles)).Msg("starting dev authority")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("shutting down dev authority")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
