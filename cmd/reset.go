package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/connections/internal/game"
	"github.com/robalobadob/connections/internal/store"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "reset <id>",
		Short: "Forget saved progress for a puzzle",
		Long: `Delete the saved tile order, selection and solved groups for a puzzle.
The next play starts fresh with a new shuffle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := store.Open(cfg.StateDB)
			if err != nil {
				return fmt.Errorf("open state: %w", err)
			}
			defer closeStore()

			id := game.PuzzleID(args[0])
			if err := game.ClearProgress(cmd.Context(), st, id); err != nil {
				return fmt.Errorf("reset %s: %w", id, err)
			}
			log.Info().Str("puzzle", id.String()).Msg("progress reset")
			return nil
		},
	})
}
