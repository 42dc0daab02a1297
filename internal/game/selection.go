package game

import (
	"context"
	"slices"
)

// Selection tracks the player's tentative picks: at most GroupSize ids, no
// repeats, insertion order. It does not know which tiles are solved; callers only
// offer unsolved tiles. Not safe for concurrent use.
type Selection struct {
	store Store
	key   string
	ids   []int
}

// NewSelection returns an empty selection persisted under id's selection key.
func NewSelection(st Store, id PuzzleID) *Selection {
	return &Selection{store: st, key: selectionKey(id)}
}

// Toggle removes tileID if selected, otherwise appends it while below the cap.
// At the cap the call is a no-op. changed reports whether a mutation was
// persisted and committed; on a write error nothing changes.
func (s *Selection) Toggle(ctx context.Context, tileID int) (changed bool, err error) {
	var next []int
	switch i := slices.Index(s.ids, tileID); {
	case i >= 0:
		next = slices.Delete(slices.Clone(s.ids), i, i+1)
	case len(s.ids) < GroupSize:
		next = append(slices.Clone(s.ids), tileID)
	default:
		return false, nil
	}
	if err := saveJSON(ctx, s.store, s.key, next); err != nil {
		return false, err
	}
	s.ids = next
	return true, nil
}

// Clear empties the selection and persists the empty value.
func (s *Selection) Clear(ctx context.Context) error {
	if err := saveJSON(ctx, s.store, s.key, []int{}); err != nil {
		return err
	}
	s.ids = nil
	return nil
}

// IDs returns a copy of the current picks.
func (s *Selection) IDs() []int { return slices.Clone(s.ids) }

func (s *Selection) Len() int { return len(s.ids) }

func (s *Selection) Contains(tileID int) bool { return slices.Contains(s.ids, tileID) }

// restore replaces the in-memory picks with persisted ones, keeping only ids that
// keep returns true for, dropping repeats, and truncating to the cap.
// It reports whether anything had to be dropped.
func (s *Selection) restore(ctx context.Context, keep func(int) bool) (dropped bool, err error) {
	var saved []int
	if _, err := loadJSON(ctx, s.store, s.key, &saved); err != nil {
		return false, err
	}
	s.ids = nil
	for _, id := range saved {
		if len(s.ids) == GroupSize || !keep(id) || slices.Contains(s.ids, id) {
			dropped = true
			continue
		}
		s.ids = append(s.ids, id)
	}
	return dropped, nil
}
