package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifierSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("correct passes link text through", func(t *testing.T) {
		auth := newFakeAuthority()
		v, err := NewVerifier(auth).Submit(ctx, testPuzzle, []int{3, 7, 11, 15})
		require.NoError(t, err)
		assert.Equal(t, Verdict{Correct: true, LinkText: "Capitals"}, v)
	})

	t.Run("incorrect is not an error", func(t *testing.T) {
		auth := newFakeAuthority()
		v, err := NewVerifier(auth).Submit(ctx, testPuzzle, []int{1, 2, 3, 4})
		require.NoError(t, err)
		assert.False(t, v.Correct)
		assert.Empty(t, v.LinkText)
	})

	t.Run("wrong size never reaches the authority", func(t *testing.T) {
		auth := newFakeAuthority()
		for _, ids := range [][]int{nil, {1, 2, 3}, {1, 2, 3, 4, 5}} {
			_, err := NewVerifier(auth).Submit(ctx, testPuzzle, ids)
			require.ErrorIs(t, err, ErrPrecondition)
		}
		_, checks, _ := auth.calls()
		assert.Zero(t, checks)
	})

	t.Run("transport failure", func(t *testing.T) {
		auth := newFakeAuthority()
		auth.checkErr = errDown
		_, err := NewVerifier(auth).Submit(ctx, testPuzzle, []int{3, 7, 11, 15})
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "check", fe.Op)
		assert.Equal(t, testPuzzle, fe.PuzzleID)
		assert.ErrorIs(t, err, errDown)
	})
}
