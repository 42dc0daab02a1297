package game

// TileView is an unsolved tile as offered to the player.
type TileView struct {
	Tile
	Selected bool
}

// View is an immutable snapshot of a session for rendering.
type View struct {
	PuzzleID   PuzzleID
	State      State
	Tiles      []TileView  // unsolved tiles in presentation order
	Groups     []GroupView // solved groups in solve order
	Selected   []int
	WrongGuess bool
	Complete   bool
	CanSubmit  bool
}

// View snapshots the session. Solved tiles never appear in Tiles, so a complete
// session offers nothing to select.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		PuzzleID:   s.puzzleID,
		State:      s.state,
		Selected:   s.selection.IDs(),
		WrongGuess: s.ledger.WrongGuess(),
		Complete:   s.ledger.IsComplete(),
		Groups:     s.ledger.Render(s.byID),
	}
	for _, t := range s.order {
		if s.ledger.IsSolved(t.ID) {
			continue
		}
		v.Tiles = append(v.Tiles, TileView{Tile: t, Selected: s.selection.Contains(t.ID)})
	}
	v.CanSubmit = s.state == StatePlaying && s.selection.Len() == GroupSize
	return v
}
