package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robalobadob/connections/internal/game"
)

const cellWidth = 14

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	winStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))

	cellStyle = lipgloss.NewStyle().
			Width(cellWidth).
			Align(lipgloss.Center).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
	selectedCell = cellStyle.
			Background(lipgloss.Color("60")).
			Foreground(lipgloss.Color("230")).
			Bold(true)
	wrongBorder  = lipgloss.Color("160")
	cursorBorder = lipgloss.Color("212")

	// Solved group colors, in solve order.
	groupColors = []lipgloss.Color{"178", "71", "68", "97"}
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Connections · puzzle " + m.view.PuzzleID.String()))
	b.WriteString("\n\n")

	for i, g := range m.view.Groups {
		b.WriteString(renderGroup(i, g))
		b.WriteString("\n")
	}

	if m.view.Complete {
		b.WriteString("\n" + winStyle.Render("Solved!") + "\n")
	} else {
		b.WriteString(m.renderGrid())
	}

	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}
	if m.view.State != game.StateLoading {
		b.WriteString(statusStyle.Render(fmt.Sprintf("%d/%d selected", len(m.view.Selected), game.GroupSize)) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func renderGroup(i int, g game.GroupView) string {
	titles := make([]string, len(g.Tiles))
	for j, t := range g.Tiles {
		titles[j] = t.Title
	}
	label := g.Label
	if !g.Canonical {
		label += " (provisional)"
	}
	width := columns*(cellWidth+4) - 2
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1).
		Background(groupColors[i%len(groupColors)]).
		Foreground(lipgloss.Color("16")).
		Render(strings.ToUpper(label) + "\n" + strings.Join(titles, ", "))
}

func (m Model) renderGrid() string {
	if len(m.view.Tiles) == 0 {
		return ""
	}
	var rows []string
	for start := 0; start < len(m.view.Tiles); start += columns {
		end := min(start+columns, len(m.view.Tiles))
		var cells []string
		for i := start; i < end; i++ {
			cells = append(cells, m.renderCell(i))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n"
}

func (m Model) renderCell(i int) string {
	t := m.view.Tiles[i]
	st := cellStyle
	if t.Selected {
		st = selectedCell
	}
	switch {
	case i == m.cursor:
		st = st.BorderForeground(cursorBorder)
	case m.view.WrongGuess:
		st = st.BorderForeground(wrongBorder)
	}
	return st.Render(truncate(t.Title, cellWidth))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
