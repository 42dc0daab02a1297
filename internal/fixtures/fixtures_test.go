package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/connections/internal/game"
)

func TestEmbeddedPuzzlesAreValid(t *testing.T) {
	t.Setenv("PUZZLES_FILE", "")
	ps, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, ps)
	for _, p := range ps {
		assert.Len(t, p.Tiles(), 16, p.ID)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	data := `
puzzles:
  - id: 40
    groups:
      - name: Evens
        tiles: [{id: 2, title: two}, {id: 4, title: four}, {id: 6, title: six}, {id: 8, title: eight}]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("PUZZLES_FILE", path)

	ps, err := Load()
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, int64(40), ps[0].ID)
	assert.Equal(t, []game.Tile{{ID: 2, Title: "two"}, {ID: 4, Title: "four"}, {ID: 6, Title: "six"}, {ID: 8, Title: "eight"}}, ps[0].Tiles())
}

func TestParseRejectsBadPuzzles(t *testing.T) {
	cases := map[string]string{
		"empty":        `puzzles: []`,
		"zero id":      `puzzles: [{id: 0, groups: [{name: a, tiles: [{id: 1}, {id: 2}, {id: 3}, {id: 4}]}]}]`,
		"text id":      `puzzles: [{id: abc, groups: [{name: a, tiles: [{id: 1}, {id: 2}, {id: 3}, {id: 4}]}]}]`,
		"no id":        `puzzles: [{groups: [{name: a, tiles: [{id: 1}, {id: 2}, {id: 3}, {id: 4}]}]}]`,
		"short group":  `puzzles: [{id: 1, groups: [{name: a, tiles: [{id: 1}, {id: 2}, {id: 3}]}]}]`,
		"unnamed":      `puzzles: [{id: 1, groups: [{tiles: [{id: 1}, {id: 2}, {id: 3}, {id: 4}]}]}]`,
		"repeated ids": `puzzles: [{id: 1, groups: [{name: a, tiles: [{id: 1}, {id: 1}, {id: 3}, {id: 4}]}]}]`,
		"dup puzzle": `puzzles:
  - {id: 1, groups: [{name: a, tiles: [{id: 1}, {id: 2}, {id: 3}, {id: 4}]}]}
  - {id: 1, groups: [{name: a, tiles: [{id: 1}, {id: 2}, {id: 3}, {id: 4}]}]}`,
		"not yaml": `puzzles: [`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func defaultPuzzle(t *testing.T) Puzzle {
	t.Helper()
	ps, err := Parse(embeddedPuzzles)
	require.NoError(t, err)
	p, err := NewCatalog(ps).Get(1)
	require.NoError(t, err)
	return p
}

func TestCheck(t *testing.T) {
	p := defaultPuzzle(t)

	ok, link := p.Check([]int{15, 3, 11, 7})
	assert.True(t, ok)
	assert.Equal(t, "Capitals", link)

	ok, link = p.Check([]int{3, 7, 11, 1})
	assert.False(t, ok)
	assert.Empty(t, link)

	ok, _ = p.Check([]int{3, 3, 7, 11})
	assert.False(t, ok, "repeats never match")

	ok, _ = p.Check([]int{3, 7, 11})
	assert.False(t, ok)
}

func TestCheckFallsBackToName(t *testing.T) {
	p := Puzzle{ID: 9, Groups: []Group{{Name: "Evens", Tiles: []game.Tile{{ID: 2}, {ID: 4}, {ID: 6}, {ID: 8}}}}}
	ok, link := p.Check([]int{2, 4, 6, 8})
	assert.True(t, ok)
	assert.Equal(t, "Evens", link)
}

func TestConnections(t *testing.T) {
	conns := defaultPuzzle(t).Connections()
	require.Len(t, conns, 4)
	assert.Equal(t, game.Connection{Name: "European capitals", TileIDs: []int{3, 7, 11, 15}}, conns[0])
}

func TestCatalogAdd(t *testing.T) {
	ps, err := Parse(embeddedPuzzles)
	require.NoError(t, err)
	c := NewCatalog(ps)

	var groups []Group
	for _, name := range []string{"a", "b", "c", "d"} {
		g := Group{Name: name, Link: name}
		for i := 0; i < 4; i++ {
			g.Tiles = append(g.Tiles, game.Tile{Title: name})
		}
		groups = append(groups, g)
	}
	added, err := c.Add(Puzzle{Author: "me", Difficulty: "easy", Groups: groups})
	require.NoError(t, err)
	assert.Equal(t, int64(3), added.ID, "next id after the embedded puzzles")
	assert.False(t, added.CreatedAt.IsZero())

	_, err = c.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, added.ID, c.List()[0].ID, "newest first")

	// Fresh tile ids never collide with existing puzzles.
	existing := map[int]bool{}
	for _, p := range ps {
		for _, tile := range p.Tiles() {
			existing[tile.ID] = true
		}
	}
	for _, tile := range added.Tiles() {
		assert.False(t, existing[tile.ID], "tile %d reused", tile.ID)
	}

	_, err = c.Add(Puzzle{Groups: []Group{{Name: "short", Tiles: []game.Tile{{Title: "x"}}}}})
	assert.Error(t, err)
	_, err = c.Get(404)
	assert.ErrorIs(t, err, ErrNotFound)
}
