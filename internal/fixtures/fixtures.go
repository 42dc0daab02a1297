// internal/fixtures/fixtures.go
//
// Puzzle fixtures for the local dev authority.
//
// Initialization behavior (Load):
//   1. If PUZZLES_FILE is set, parse puzzles from that YAML file.
//   2. Otherwise fall back to the embedded `puzzles.yaml`.
//
// Constraints:
//   • Every group has exactly four tiles and a non-empty name.
//   • Tile ids are unique within a puzzle; puzzle ids are unique positive integers,
//     matching the numeric game ids of the production authority.

package fixtures

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/connections/internal/game"
)

//go:embed puzzles.yaml
var embeddedPuzzles []byte

// Puzzle is one authored puzzle.
type Puzzle struct {
	ID         int64     `yaml:"id"`
	Author     string    `yaml:"author"`
	Difficulty string    `yaml:"difficulty"`
	TimeLimit  string    `yaml:"time_limit"`
	CreatedAt  time.Time `yaml:"created_at"`
	Groups     []Group   `yaml:"groups"`
}

// Group is one hidden connection: a canonical name, the provisional link text
// returned on a correct guess, and its four tiles.
type Group struct {
	Name      string      `yaml:"name"`
	Link      string      `yaml:"link"`
	LinkTerms []string    `yaml:"link_terms"`
	Tiles     []game.Tile `yaml:"tiles"`
}

type file struct {
	Puzzles []Puzzle `yaml:"puzzles"`
}

// Load reads PUZZLES_FILE if set, else the embedded defaults.
func Load() ([]Puzzle, error) {
	if path := os.Getenv("PUZZLES_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return Parse(data)
	}
	return Parse(embeddedPuzzles)
}

// Parse decodes and validates a YAML puzzle file.
func Parse(data []byte) ([]Puzzle, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse puzzles: %w", err)
	}
	if len(f.Puzzles) == 0 {
		return nil, errors.New("fixtures: no puzzles")
	}
	seen := make(map[int64]struct{}, len(f.Puzzles))
	for _, p := range f.Puzzles {
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("fixtures: duplicate puzzle id %d", p.ID)
		}
		seen[p.ID] = struct{}{}
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Puzzles, nil
}

// Validate checks group sizes, names, and tile id uniqueness.
func (p Puzzle) Validate() error {
	if p.ID <= 0 {
		return errors.New("fixtures: puzzle without a positive id")
	}
	if len(p.Groups) == 0 {
		return fmt.Errorf("fixtures: puzzle %d has no groups", p.ID)
	}
	ids := make(map[int]struct{})
	for i, g := range p.Groups {
		if g.Name == "" {
			return fmt.Errorf("fixtures: puzzle %d group %d has no name", p.ID, i)
		}
		if len(g.Tiles) != game.GroupSize {
			return fmt.Errorf("fixtures: puzzle %d group %q has %d tiles", p.ID, g.Name, len(g.Tiles))
		}
		for _, t := range g.Tiles {
			if _, dup := ids[t.ID]; dup {
				return fmt.Errorf("fixtures: puzzle %d repeats tile id %d", p.ID, t.ID)
			}
			ids[t.ID] = struct{}{}
		}
	}
	return nil
}

// Tiles lists every tile in authored order.
func (p Puzzle) Tiles() []game.Tile {
	var out []game.Tile
	for _, g := range p.Groups {
		out = append(out, g.Tiles...)
	}
	return out
}

// Check reports whether ids are four distinct tiles of a single group, and if so
// that group's link text (its name when no link is set).
func (p Puzzle) Check(ids []int) (bool, string) {
	if len(ids) != game.GroupSize {
		return false, ""
	}
	for _, g := range p.Groups {
		if !sameSet(g.Tiles, ids) {
			continue
		}
		if g.Link != "" {
			return true, g.Link
		}
		return true, g.Name
	}
	return false, ""
}

// Connections returns the canonical groupings.
func (p Puzzle) Connections() []game.Connection {
	out := make([]game.Connection, 0, len(p.Groups))
	for _, g := range p.Groups {
		c := game.Connection{Name: g.Name}
		for _, t := range g.Tiles {
			c.TileIDs = append(c.TileIDs, t.ID)
		}
		out = append(out, c)
	}
	return out
}

func sameSet(tiles []game.Tile, ids []int) bool {
	want := make(map[int]struct{}, len(tiles))
	for _, t := range tiles {
		want[t.ID] = struct{}{}
	}
	got := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := want[id]; !ok {
			return false
		}
		got[id] = struct{}{}
	}
	return len(got) == len(want)
}
