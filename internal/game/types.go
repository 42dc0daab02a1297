// internal/game/types.go
//
// Core type definitions for the puzzle session.
// Defines:
//   - Tile: one selectable puzzle item.
//   - SolvedGroup: a correct guess with its provisional label.
//   - Connection: the canonical, author-named grouping fetched after completion.
//   - Verdict: the authority's answer to a guess.
//   - State: coarse session state a view renders against.

package game

import "context"

// GroupSize is the number of tiles in a group and in a submitted guess.
const GroupSize = 4

// PuzzleID scopes all persisted state and all remote calls for one puzzle.
type PuzzleID string

func (id PuzzleID) String() string { return string(id) }

// Tile is one selectable puzzle item. Immutable once fetched.
type Tile struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// SolvedGroup is a correct guess as recorded at guess time.
// IDs keep the order the player selected them in.
type SolvedGroup struct {
	IDs      []int  `json:"ids"`
	LinkText string `json:"linkText"`
}

// Connection is the canonical grouping authored with the puzzle.
type Connection struct {
	Name    string `json:"name"`
	TileIDs []int  `json:"tileIds"`
}

// Verdict is the authority's interpretation of a four-tile guess.
type Verdict struct {
	Correct  bool
	LinkText string // only set when Correct
}

// State is the session's coarse lifecycle position.
type State string

const (
	StateLoading  State = "loading"
	StatePlaying  State = "playing"
	StateChecking State = "checking"
)

// Authority is the remote service the session treats as the source of truth.
// Implementations must be safe for concurrent use.
type Authority interface {
	// Tiles returns the canonical tile set for a puzzle. Order carries no meaning.
	Tiles(ctx context.Context, id PuzzleID) ([]Tile, error)

	// CheckGuess asks whether exactly four tiles form one group.
	CheckGuess(ctx context.Context, id PuzzleID, tileIDs []int) (Verdict, error)

	// Connections returns the canonical groupings. Only called once a puzzle is solved.
	Connections(ctx context.Context, id PuzzleID) ([]Connection, error)
}

// Store is the per-puzzle key/value persistence the session reads on entry and
// writes after every mutating transition. A missing key is (nil, false, nil).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
