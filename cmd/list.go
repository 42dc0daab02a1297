package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/robalobadob/connections/internal/authority"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List puzzles offered by the authority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := authority.New(cfg.AuthorityURL, cfg.HTTPTimeout)
			puzzles, err := client.ListPuzzles(cmd.Context())
			if err != nil {
				return fmt.Errorf("list puzzles: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(puzzles) == 0 {
				fmt.Fprintln(out, "no puzzles")
				return nil
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				Headers("ID", "AUTHOR", "DIFFICULTY", "CREATED").
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return lipgloss.NewStyle().Padding(0, 1)
				})
			for _, p := range puzzles {
				created := "-"
				if !p.CreatedAt.IsZero() {
					created = p.CreatedAt.Local().Format("2006-01-02")
				}
				t.Row(strconv.FormatInt(p.ID, 10), p.Author, p.Difficulty, created)
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	})
}
