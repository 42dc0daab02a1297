// internal/game/catalog.go
//
// TileCatalog: the once-randomized presentation order of a puzzle's tiles.
//
// The first load for a puzzle fetches the canonical tile set, shuffles it, and
// pins the result in the Store before returning it. Later loads still fetch, and
// the server's tile content wins, but its ordering is ignored: tiles come back in
// the pinned positions so nothing the player has learned moves. A pinned order
// whose ids no longer match the server's set is stale and gets re-pinned. Only a
// reset (which deletes the pinned key) or such a mismatch causes a fresh shuffle.

package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ShuffleFunc permutes n elements through swap (signature of rand.Shuffle).
type ShuffleFunc func(n int, swap func(i, j int))

// Catalog loads and pins tile orders.
type Catalog struct {
	authority Authority
	store     Store
	shuffle   ShuffleFunc
	log       zerolog.Logger
}

// NewCatalog builds a Catalog. A nil shuffle uses math/rand/v2.
func NewCatalog(a Authority, st Store, shuffle ShuffleFunc) *Catalog {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	return &Catalog{authority: a, store: st, shuffle: shuffle, log: log.Logger}
}

// Load returns the pinned TileOrder for id, establishing it on first use.
// Authority failures and malformed tile sets are returned as *FetchError.
func (c *Catalog) Load(ctx context.Context, id PuzzleID) ([]Tile, error) {
	var pinned []Tile
	found, err := loadJSON(ctx, c.store, orderKey(id), &pinned)
	switch {
	case err != nil && !errors.Is(err, errCorrupt):
		return nil, err
	case err != nil:
		c.log.Warn().Err(err).Str("puzzle", id.String()).Msg("discarding unreadable tile order")
		pinned = nil
	case found:
		if verr := validateTiles(pinned); verr != nil {
			c.log.Warn().Err(verr).Str("puzzle", id.String()).Msg("discarding invalid tile order")
			pinned = nil
		}
	}

	tiles, err := c.authority.Tiles(ctx, id)
	if err != nil {
		return nil, fetchErr("tiles", id, err)
	}
	if err := validateTiles(tiles); err != nil {
		return nil, &FetchError{Op: "tiles", PuzzleID: id, Err: err}
	}

	if pinned != nil {
		order, ok := arrange(tiles, pinned)
		if ok {
			if !slices.Equal(order, pinned) {
				if err := saveJSON(ctx, c.store, orderKey(id), order); err != nil {
					return nil, err
				}
				c.log.Debug().Str("puzzle", id.String()).Msg("refreshed pinned tile content")
			}
			return order, nil
		}
		c.log.Warn().Str("puzzle", id.String()).Msg("pinned tile order no longer matches the puzzle, re-pinning")
	}

	order := slices.Clone(tiles)
	c.shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	if err := saveJSON(ctx, c.store, orderKey(id), order); err != nil {
		return nil, err
	}
	c.log.Debug().Str("puzzle", id.String()).Int("tiles", len(order)).Msg("pinned tile order")
	return order, nil
}

// arrange lays fetched out in pinned's positions. It reports false when the two
// do not carry the same set of ids.
func arrange(fetched, pinned []Tile) ([]Tile, bool) {
	if len(fetched) != len(pinned) {
		return nil, false
	}
	byID := make(map[int]Tile, len(fetched))
	for _, t := range fetched {
		byID[t.ID] = t
	}
	order := make([]Tile, len(pinned))
	for i, p := range pinned {
		t, ok := byID[p.ID]
		if !ok {
			return nil, false
		}
		order[i] = t
	}
	return order, true
}

// validateTiles requires a positive multiple of GroupSize tiles with unique ids.
func validateTiles(tiles []Tile) error {
	if len(tiles) == 0 || len(tiles)%GroupSize != 0 {
		return fmt.Errorf("tile count %d is not a positive multiple of %d", len(tiles), GroupSize)
	}
	seen := make(map[int]struct{}, len(tiles))
	for _, t := range tiles {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("duplicate tile id %d", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}
