package cmd

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/connections/internal/authority"
	"github.com/robalobadob/connections/internal/game"
	"github.com/robalobadob/connections/internal/store"
	"github.com/robalobadob/connections/internal/tui"
)

func init() {
	playCmd := &cobra.Command{
		Use:   "play <id>",
		Short: "Play a puzzle",
		Long: `Play a puzzle in the terminal. Progress is saved after every move and
restored the next time the same puzzle is opened.

Keys:
  arrows / hjkl   move
  space           select or deselect a tile
  enter           submit four selected tiles
  r               reset the puzzle (reshuffles)
  q               quit`,
		Args: cobra.ExactArgs(1),
		RunE: runPlay,
	}
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	id := game.PuzzleID(args[0])
	if _, err := authority.GameID(id); err != nil {
		return err
	}

	// Console logging would draw over the board.
	if cfg.LogFile == "" {
		log.Logger = log.Logger.Level(zerolog.Disabled)
	}

	st, closeStore, err := store.Open(cfg.StateDB)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer closeStore()

	updates := make(chan struct{}, 1)
	sess := game.NewSession(
		id,
		authority.New(cfg.AuthorityURL, cfg.HTTPTimeout),
		st,
		game.WithWrongGuessWindow(cfg.WrongGuessWindow),
		game.WithNotify(func() {
			select {
			case updates <- struct{}{}:
			default:
			}
		}),
	)
	defer sess.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := tea.NewProgram(tui.New(ctx, sess, updates), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
