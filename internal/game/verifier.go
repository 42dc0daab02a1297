package game

import (
	"context"
	"fmt"
	"slices"
)

// Verifier submits a four-tile guess to the authority and interprets the answer.
type Verifier struct {
	authority Authority
}

func NewVerifier(a Authority) *Verifier { return &Verifier{authority: a} }

// Submit makes exactly one authority call for a valid guess. An Incorrect verdict
// is not an error. Transport and decoding failures come back as *FetchError and
// the returned Verdict must be ignored. On Correct, LinkText is passed through
// verbatim.
func (v *Verifier) Submit(ctx context.Context, id PuzzleID, tileIDs []int) (Verdict, error) {
	if len(tileIDs) != GroupSize {
		return Verdict{}, fmt.Errorf("%w: got %d", ErrPrecondition, len(tileIDs))
	}
	verdict, err := v.authority.CheckGuess(ctx, id, slices.Clone(tileIDs))
	if err != nil {
		return Verdict{}, fetchErr("check", id, err)
	}
	if !verdict.Correct {
		verdict.LinkText = ""
	}
	return verdict, nil
}
