package game

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch matches every *FetchError via errors.Is.
	ErrFetch = errors.New("fetch failed")

	// ErrPrecondition is a caller error: a guess must hold exactly GroupSize tiles.
	ErrPrecondition = errors.New("selection must contain exactly 4 tiles")

	ErrNotLoaded   = errors.New("session not loaded")
	ErrChecking    = errors.New("guess check already in flight")
	ErrUnknownTile = errors.New("tile not in puzzle")
	ErrTileSolved  = errors.New("tile already solved")

	// ErrStale reports a response that arrived after the session was reset.
	ErrStale = errors.New("stale response discarded")
)

// FetchError is a transport, status, or decoding failure talking to the authority.
// It is never fatal: callers degrade to a no-op with local state intact.
type FetchError struct {
	Op       string
	PuzzleID PuzzleID
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.PuzzleID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// fetchErr wraps err unless it is already a FetchError.
func fetchErr(op string, id PuzzleID, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Op: op, PuzzleID: id, Err: err}
}
