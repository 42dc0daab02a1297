// internal/authority/wire.go
//
// JSON payloads exchanged with the puzzle authority.
//   GET  /api/games                 → []Summary
//   POST /api/game                  → CreateRequest / CreateResponse
//   GET  /api/games/{id}            → TilesResponse
//   POST /api/games/check           → CheckRequest / CheckResponse
//   GET  /api/games/{id}/connections → ConnectionsResponse
// Errors use ErrorResponse with a non-2xx status.
// Game ids travel as JSON numbers; game.PuzzleID keeps their decimal form.

package authority

import (
	"time"

	"github.com/robalobadob/connections/internal/game"
)

// Difficulty levels accepted by the authority.
const (
	DifficultyEasy       = "easy"
	DifficultyMedium     = "medium"
	DifficultyHard       = "hard"
	DifficultyImpossible = "impossible"
)

// Time limits accepted by the authority.
const (
	TimeLimitUnlimited = "unlimited"
	TimeLimit15        = "15"
	TimeLimit10        = "10"
	TimeLimit5         = "5"
)

type TilesResponse struct {
	GameID int64       `json:"game_id"`
	Tiles  []game.Tile `json:"tiles"`
}

type CheckRequest struct {
	GameID  int64 `json:"game_id"`
	TileIDs []int `json:"tile_ids"`
}

type CheckResponse struct {
	Correct  bool   `json:"correct"`
	LinkText string `json:"link_text,omitempty"` // only when correct
}

type TileRef struct {
	ID int `json:"id"`
}

type ConnectionJSON struct {
	Name  string    `json:"name"`
	Tiles []TileRef `json:"tiles"`
}

type ConnectionsResponse struct {
	Connections []ConnectionJSON `json:"connections"`
}

// Summary is one row of the browse list.
type Summary struct {
	ID         int64     `json:"id"`
	Author     string    `json:"author"`
	Difficulty string    `json:"difficulty_level"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateRequest is the authoring payload. Validation belongs to the authority.
type CreateRequest struct {
	Author     string      `json:"author"`
	Difficulty string      `json:"difficulty"`
	TimeLimit  string      `json:"time_limit"`
	Groups     []GroupSpec `json:"groups"`
}

type GroupSpec struct {
	Link      string     `json:"link"`
	LinkTerms []string   `json:"link_terms"`
	Tiles     []TileSpec `json:"tiles"`
}

type TileSpec struct {
	Title string `json:"title"`
}

type CreateResponse struct {
	GameID int64  `json:"game_id"`
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
