// cmd/root.go
//
// Command tree for the connections client.
//
//   connections play <id>    play a puzzle in the terminal
//   connections list         list puzzles offered by the authority
//   connections reset <id>   forget local progress for a puzzle
//   connections serve        run the local dev authority
//
// Configuration comes from the environment (see internal/config); flags on the
// root command override it.

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/connections/internal/config"
)

var (
	cfg *config.Config

	authorityURL string
	stateDB      string
	logLevel     string

	logFile io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "connections",
	Short:         "Play 16-tile Connections puzzles in the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("authority") {
			c.AuthorityURL = authorityURL
		}
		if cmd.Flags().Changed("state") {
			c.StateDB = stateDB
		}
		if cmd.Flags().Changed("log-level") {
			c.LogLevel = logLevel
		}
		cfg = c
		return setupLogging(c)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			_ = logFile.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&authorityURL, "authority", "", "Authority base URL (overrides AUTHORITY_URL)")
	rootCmd.PersistentFlags().StringVar(&stateDB, "state", "", "Progress database path or :memory: (overrides STATE_DB)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
}

// Execute runs the command tree. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// setupLogging applies the log level and, when LOG_FILE is set, redirects the
// global logger so it does not draw over the terminal UI.
func setupLogging(c *config.Config) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || c.LogLevel == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if c.LogFile == "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return nil
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return nil
}
