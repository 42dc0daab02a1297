// internal/authority/client.go
//
// HTTP client for the puzzle authority.
// Implements game.Authority for the session, plus the browse and authoring calls
// used by the CLI. Every transport failure, non-2xx status, undecodable body, or
// response naming a different puzzle is returned as an error; the session turns
// those into *game.FetchError. The authority numbers its games, so a PuzzleID
// that is not a decimal integer fails with ErrBadPuzzleID before any request.

package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/robalobadob/connections/internal/game"
)

// maxBody bounds how much of a response is read.
const maxBody = 1 << 20

var (
	// ErrPuzzleMismatch reports a response that belongs to another puzzle.
	ErrPuzzleMismatch = errors.New("response for a different puzzle")
	// ErrBadPuzzleID reports a PuzzleID the authority cannot address.
	ErrBadPuzzleID = errors.New("puzzle id is not numeric")
)

// StatusError is a non-2xx reply.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
}

// Client talks to one authority base address. Safe for concurrent use.
type Client struct {
	base string
	http *http.Client
}

var _ game.Authority = (*Client)(nil)

// New returns a client for base (e.g. http://localhost:8181). A zero timeout
// leaves requests bounded only by their context.
func New(base string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// GameID converts a PuzzleID to the authority's numeric game id.
func GameID(id game.PuzzleID) (int64, error) {
	n, err := strconv.ParseInt(id.String(), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadPuzzleID, id.String())
	}
	return n, nil
}

// PuzzleID is the inverse of GameID.
func PuzzleID(n int64) game.PuzzleID {
	return game.PuzzleID(strconv.FormatInt(n, 10))
}

// Tiles fetches the canonical tile set for id.
func (c *Client) Tiles(ctx context.Context, id game.PuzzleID) ([]game.Tile, error) {
	n, err := GameID(id)
	if err != nil {
		return nil, err
	}
	var res TilesResponse
	if err := c.do(ctx, http.MethodGet, "/api/games/"+strconv.FormatInt(n, 10), nil, &res); err != nil {
		return nil, err
	}
	if res.GameID != 0 && res.GameID != n {
		return nil, fmt.Errorf("%w: asked %d, got %d", ErrPuzzleMismatch, n, res.GameID)
	}
	return res.Tiles, nil
}

// CheckGuess submits tileIDs as one guess.
func (c *Client) CheckGuess(ctx context.Context, id game.PuzzleID, tileIDs []int) (game.Verdict, error) {
	n, err := GameID(id)
	if err != nil {
		return game.Verdict{}, err
	}
	var res CheckResponse
	req := CheckRequest{GameID: n, TileIDs: tileIDs}
	if err := c.do(ctx, http.MethodPost, "/api/games/check", req, &res); err != nil {
		return game.Verdict{}, err
	}
	return game.Verdict{Correct: res.Correct, LinkText: res.LinkText}, nil
}

// Connections fetches the canonical groupings for a solved puzzle.
func (c *Client) Connections(ctx context.Context, id game.PuzzleID) ([]game.Connection, error) {
	n, err := GameID(id)
	if err != nil {
		return nil, err
	}
	var res ConnectionsResponse
	path := "/api/games/" + strconv.FormatInt(n, 10) + "/connections"
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	out := make([]game.Connection, 0, len(res.Connections))
	for _, cj := range res.Connections {
		conn := game.Connection{Name: cj.Name, TileIDs: make([]int, 0, len(cj.Tiles))}
		for _, t := range cj.Tiles {
			conn.TileIDs = append(conn.TileIDs, t.ID)
		}
		out = append(out, conn)
	}
	return out, nil
}

// ListPuzzles returns the browse list.
func (c *Client) ListPuzzles(ctx context.Context) ([]Summary, error) {
	var res []Summary
	if err := c.do(ctx, http.MethodGet, "/api/games", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// CreatePuzzle submits an authored puzzle and returns its id.
func (c *Client) CreatePuzzle(ctx context.Context, req CreateRequest) (game.PuzzleID, error) {
	var res CreateResponse
	if err := c.do(ctx, http.MethodPost, "/api/game", req, &res); err != nil {
		return "", err
	}
	if res.GameID <= 0 {
		return "", errors.New("create puzzle: missing game_id")
	}
	return PuzzleID(res.GameID), nil
}

// do performs one JSON round trip. body may be nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode}
		var er ErrorResponse
		if json.Unmarshal(data, &er) == nil {
			se.Message = er.Error
		}
		return se
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
