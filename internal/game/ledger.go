// internal/game/ledger.go
//
// ProgressLedger: the ordered record of solved groups for one puzzle.
// Responsibilities:
//   - Append correct guesses and persist the ledger before committing them.
//   - Hold the transient wrong-guess flag for a fixed display window.
//   - Detect completion and fetch canonical connections exactly once.
//   - Render groups, preferring canonical names once connections are known.
//
// The ledger guards itself with a mutex because the feedback timer and the
// connections fetch complete outside the session's event handlers.

package game

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// GroupView is one rendered group row.
type GroupView struct {
	Label     string
	Tiles     []Tile
	Canonical bool // Label is a Connection name, not a provisional link text
}

// Ledger records solved groups. Create one per session epoch; Close it on reset.
type Ledger struct {
	mu       sync.Mutex
	store    Store
	id       PuzzleID
	universe map[int]struct{}
	groups   []SolvedGroup
	solved   map[int]struct{}

	connections []Connection
	requested   bool // connections fetch already issued this epoch

	window     time.Duration
	wrongGuess bool
	wrongGen   uint64
	timer      *time.Timer
	notify     func()
	closed     bool

	log zerolog.Logger
}

// NewLedger returns an empty ledger over the given tile universe.
// notify, if set, runs after the wrong-guess flag clears on its own.
func NewLedger(st Store, id PuzzleID, universe []Tile, window time.Duration, notify func()) *Ledger {
	u := make(map[int]struct{}, len(universe))
	for _, t := range universe {
		u[t.ID] = struct{}{}
	}
	return &Ledger{
		store:    st,
		id:       id,
		universe: u,
		solved:   make(map[int]struct{}),
		window:   window,
		notify:   notify,
		log:      log.Logger,
	}
}

// RecordCorrect appends a solved group. The group must hold GroupSize tiles from
// the universe, none already solved. The ledger is persisted first; on a write
// error nothing is appended.
func (l *Ledger) RecordCorrect(ctx context.Context, ids []int, linkText string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrStale
	}
	if err := l.checkGroupLocked(ids); err != nil {
		return err
	}
	next := append(slices.Clone(l.groups), SolvedGroup{IDs: slices.Clone(ids), LinkText: linkText})
	if err := saveJSON(ctx, l.store, solvedKey(l.id), next); err != nil {
		return err
	}
	l.groups = next
	for _, id := range ids {
		l.solved[id] = struct{}{}
	}
	l.supersedeFeedbackLocked()
	return nil
}

// RecordIncorrect raises the wrong-guess flag for the display window. A later
// verdict supersedes a pending window. Nothing is persisted.
func (l *Ledger) RecordIncorrect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.supersedeFeedbackLocked()
	l.wrongGuess = true
	gen := l.wrongGen
	l.timer = time.AfterFunc(l.window, func() { l.expireFeedback(gen) })
}

func (l *Ledger) expireFeedback(gen uint64) {
	l.mu.Lock()
	if l.closed || gen != l.wrongGen {
		l.mu.Unlock()
		return
	}
	l.wrongGuess = false
	l.timer = nil
	notify := l.notify
	l.mu.Unlock()
	if notify != nil {
		notify()
	}
}

func (l *Ledger) supersedeFeedbackLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.wrongGuess = false
	l.wrongGen++
}

func (l *Ledger) WrongGuess() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wrongGuess
}

// IsComplete reports whether the solved groups cover the whole universe.
func (l *Ledger) IsComplete() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.completeLocked()
}

func (l *Ledger) completeLocked() bool {
	return len(l.universe) > 0 && len(l.solved) == len(l.universe)
}

func (l *Ledger) IsSolved(tileID int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.solved[tileID]
	return ok
}

// Groups returns a copy of the solved groups in solve order.
func (l *Ledger) Groups() []SolvedGroup {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]SolvedGroup, len(l.groups))
	for i, g := range l.groups {
		out[i] = SolvedGroup{IDs: slices.Clone(g.IDs), LinkText: g.LinkText}
	}
	return out
}

func (l *Ledger) Connections() []Connection {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.connections)
}

// FetchConnectionsIfComplete issues the canonical connections request the first
// time it is called on a complete ledger, and does nothing otherwise. fired
// reports whether a request went out. A failed request leaves the provisional
// labels in place; it is not retried until a new ledger is loaded.
func (l *Ledger) FetchConnectionsIfComplete(ctx context.Context, a Authority) (fired bool, err error) {
	l.mu.Lock()
	if l.closed || l.requested || !l.completeLocked() {
		l.mu.Unlock()
		return false, nil
	}
	l.requested = true
	l.mu.Unlock()

	conns, err := a.Connections(ctx, l.id)
	if err != nil {
		err = fetchErr("connections", l.id, err)
		l.log.Warn().Err(err).Str("puzzle", l.id.String()).Msg("keeping provisional labels")
		return true, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return true, ErrStale
	}
	l.connections = slices.Clone(conns)
	return true, nil
}

// Render returns the solved groups in solve order. A group whose tile set equals
// a Connection is labelled with the Connection name and its tiles ordered by
// first appearance among all solved tiles. Otherwise the provisional link text
// and the group's own tile order are kept.
func (l *Ledger) Render(tiles map[int]Tile) []GroupView {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := make(map[int]int, len(l.solved))
	for _, g := range l.groups {
		for _, id := range g.IDs {
			if _, seen := pos[id]; !seen {
				pos[id] = len(pos)
			}
		}
	}

	out := make([]GroupView, 0, len(l.groups))
	for _, g := range l.groups {
		c, ok := matchConnection(l.connections, g.IDs)
		if !ok {
			out = append(out, GroupView{Label: g.LinkText, Tiles: lookupTiles(tiles, g.IDs)})
			continue
		}
		ids := slices.Clone(c.TileIDs)
		slices.SortFunc(ids, func(a, b int) int { return pos[a] - pos[b] })
		out = append(out, GroupView{Label: c.Name, Tiles: lookupTiles(tiles, ids), Canonical: true})
	}
	return out
}

// Close stops the feedback timer and turns any in-flight result into a no-op.
func (l *Ledger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.supersedeFeedbackLocked()
	l.closed = true
	l.notify = nil
}

// restore loads the persisted ledger, dropping groups that break disjointness,
// size, or universe membership. It reports whether anything was dropped.
func (l *Ledger) restore(ctx context.Context) (dropped bool, err error) {
	var saved []SolvedGroup
	if _, err := loadJSON(ctx, l.store, solvedKey(l.id), &saved); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.groups = nil
	l.solved = make(map[int]struct{})
	for _, g := range saved {
		if err := l.checkGroupLocked(g.IDs); err != nil {
			l.log.Warn().Err(err).Str("puzzle", l.id.String()).Ints("ids", g.IDs).Msg("dropping persisted group")
			dropped = true
			continue
		}
		l.groups = append(l.groups, SolvedGroup{IDs: slices.Clone(g.IDs), LinkText: g.LinkText})
		for _, id := range g.IDs {
			l.solved[id] = struct{}{}
		}
	}
	return dropped, nil
}

func (l *Ledger) checkGroupLocked(ids []int) error {
	if len(ids) != GroupSize {
		return fmt.Errorf("%w: got %d", ErrPrecondition, len(ids))
	}
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := l.universe[id]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknownTile, id)
		}
		if _, ok := l.solved[id]; ok {
			return fmt.Errorf("%w: %d", ErrTileSolved, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate tile %d in group", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// matchConnection finds the connection whose tile set equals ids.
func matchConnection(conns []Connection, ids []int) (Connection, bool) {
	for _, c := range conns {
		set := make(map[int]struct{}, len(c.TileIDs))
		for _, id := range c.TileIDs {
			set[id] = struct{}{}
		}
		if len(set) != len(ids) || len(c.TileIDs) != len(ids) {
			continue
		}
		match := true
		for _, id := range ids {
			if _, ok := set[id]; !ok {
				match = false
				break
			}
		}
		if match {
			return c, true
		}
	}
	return Connection{}, false
}

func lookupTiles(tiles map[int]Tile, ids []int) []Tile {
	out := make([]Tile, len(ids))
	for i, id := range ids {
		t, ok := tiles[id]
		if !ok {
			t = Tile{ID: id}
		}
		out[i] = t
	}
	return out
}
