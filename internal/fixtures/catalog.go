package fixtures

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned for unknown puzzle ids.
var ErrNotFound = errors.New("puzzle not found")

// Catalog holds puzzles in memory for the dev authority.
// Concurrency-safe via RWMutex. Nothing is written to disk.
type Catalog struct {
	mu       sync.RWMutex
	puzzles  map[int64]Puzzle
	authored map[int64]struct{} // ids created through Add; kept across Replace
	nextID   int64              // next puzzle id handed out by Add
	nextTID  int                // next tile id handed out by Add
}

// NewCatalog indexes ps by id.
func NewCatalog(ps []Puzzle) *Catalog {
	c := &Catalog{authored: make(map[int64]struct{})}
	c.index(ps)
	return c
}

// Replace swaps in a new fixture set. Puzzles created through Add survive
// unless a fixture now uses the same id.
func (c *Catalog) Replace(ps []Puzzle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.puzzles
	c.index(ps)
	for id := range c.authored {
		if _, clash := c.puzzles[id]; clash {
			delete(c.authored, id)
			continue
		}
		c.puzzles[id] = old[id]
		c.bump(old[id])
	}
}

func (c *Catalog) index(ps []Puzzle) {
	c.puzzles = make(map[int64]Puzzle, len(ps))
	c.nextID, c.nextTID = 1, 1
	for _, p := range ps {
		c.puzzles[p.ID] = p
		c.bump(p)
	}
}

// bump keeps the id counters past everything p uses.
func (c *Catalog) bump(p Puzzle) {
	if p.ID >= c.nextID {
		c.nextID = p.ID + 1
	}
	for _, t := range p.Tiles() {
		if t.ID >= c.nextTID {
			c.nextTID = t.ID + 1
		}
	}
}

// Get looks up a puzzle by id.
func (c *Catalog) Get(id int64) (Puzzle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.puzzles[id]
	if !ok {
		return Puzzle{}, ErrNotFound
	}
	return p, nil
}

// List returns all puzzles, newest first.
func (c *Catalog) List() []Puzzle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Puzzle, 0, len(c.puzzles))
	for _, p := range c.puzzles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Add assigns a puzzle id, fresh tile ids, and a creation time, validates the
// result, and stores it.
func (c *Catalog) Add(p Puzzle) (Puzzle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p.ID = c.nextID
	p.CreatedAt = time.Now().UTC()
	tid := c.nextTID
	groups := make([]Group, len(p.Groups))
	for i, g := range p.Groups {
		g.Tiles = append(g.Tiles[:0:0], g.Tiles...)
		for j := range g.Tiles {
			g.Tiles[j].ID = tid
			tid++
		}
		groups[i] = g
	}
	p.Groups = groups
	if err := p.Validate(); err != nil {
		return Puzzle{}, err
	}

	c.puzzles[p.ID] = p
	c.authored[p.ID] = struct{}{}
	c.nextID++
	c.nextTID = tid
	return p, nil
}
