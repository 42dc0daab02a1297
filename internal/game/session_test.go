package game

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, auth Authority, st Store, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithShuffle(noShuffle), WithWrongGuessWindow(20 * time.Millisecond)}, opts...)
	s := NewSession(testPuzzle, auth, st, opts...)
	t.Cleanup(s.Close)
	return s
}

func loaded(t *testing.T, auth Authority, st Store, opts ...Option) *Session {
	t.Helper()
	s := newTestSession(t, auth, st, opts...)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func selectAll(t *testing.T, s *Session, ids ...int) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.Toggle(context.Background(), id))
	}
}

func TestSessionStartsLoading(t *testing.T) {
	s := newTestSession(t, newFakeAuthority(), newMapStore())
	assert.Equal(t, StateLoading, s.State())
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, testPuzzle, s.PuzzleID())

	assert.ErrorIs(t, s.Toggle(context.Background(), 1), ErrNotLoaded)
	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestSessionLoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	auth, st := newFakeAuthority(), newMapStore()
	s := loaded(t, auth, st, WithShuffle(reverseShuffle))
	first := s.View()

	require.NoError(t, s.Load(ctx))
	if diff := cmp.Diff(first, s.View()); diff != "" {
		t.Fatalf("reload changed the view (-want +got):\n%s", diff)
	}
	tiles, _, _ := auth.calls()
	assert.Equal(t, 2, tiles)
}

func TestSessionLoadFailureStaysLoading(t *testing.T) {
	auth, st := newFakeAuthority(), newMapStore()
	auth.tilesErr = errDown
	s := newTestSession(t, auth, st)

	err := s.Load(context.Background())
	require.ErrorIs(t, err, ErrFetch)
	assert.Equal(t, StateLoading, s.State())
	assert.Empty(t, s.View().Tiles)

	auth.set(func(f *fakeAuthority) { f.tilesErr = nil })
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, StatePlaying, s.State())
	assert.Len(t, s.View().Tiles, 16)
}

func TestSessionToggleGuards(t *testing.T) {
	ctx := context.Background()
	s := loaded(t, newFakeAuthority(), newMapStore())

	assert.ErrorIs(t, s.Toggle(ctx, 99), ErrUnknownTile)

	selectAll(t, s, 1, 2, 3, 4)
	require.NoError(t, s.Toggle(ctx, 5), "fifth pick is a silent no-op")
	assert.Equal(t, []int{1, 2, 3, 4}, s.View().Selected)
	assert.True(t, s.View().CanSubmit)

	selectAll(t, s, 1, 2, 3, 4)
	selectAll(t, s, 3, 7, 11, 15)
	_, err := s.Submit(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Toggle(ctx, 3), ErrTileSolved)
}

func TestSessionSubmitRequiresFour(t *testing.T) {
	auth := newFakeAuthority()
	s := loaded(t, auth, newMapStore())
	selectAll(t, s, 3, 7, 11)

	_, err := s.Submit(context.Background())
	require.ErrorIs(t, err, ErrPrecondition)
	assert.False(t, s.View().CanSubmit)
	assert.Equal(t, []int{3, 7, 11}, s.View().Selected, "precondition failure keeps the selection")
	_, checks, _ := auth.calls()
	assert.Zero(t, checks)
}

func TestSessionCorrectGuess(t *testing.T) {
	ctx := context.Background()
	st := newMapStore()
	s := loaded(t, newFakeAuthority(), st)
	selectAll(t, s, 3, 7, 11, 15)

	v, err := s.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, Verdict{Correct: true, LinkText: "Capitals"}, v)

	view := s.View()
	assert.Equal(t, StatePlaying, view.State)
	assert.Empty(t, view.Selected)
	assert.Len(t, view.Tiles, 12, "solved tiles leave the grid")
	require.Len(t, view.Groups, 1)
	assert.Equal(t, "Capitals", view.Groups[0].Label)
	assert.Equal(t, []int{3, 7, 11, 15}, tileIDs(view.Groups[0].Tiles))
	assert.False(t, view.WrongGuess)

	raw, _ := st.raw(solvedKey(testPuzzle))
	assert.JSONEq(t, `[{"ids":[3,7,11,15],"linkText":"Capitals"}]`, raw)
	raw, _ = st.raw(selectionKey(testPuzzle))
	assert.JSONEq(t, `[]`, raw)
}

func TestSessionIncorrectGuess(t *testing.T) {
	ctx := context.Background()
	var notified atomic.Int32
	s := loaded(t, newFakeAuthority(), newMapStore(), WithNotify(func() { notified.Add(1) }))
	selectAll(t, s, 1, 2, 3, 4)

	v, err := s.Submit(ctx)
	require.NoError(t, err)
	assert.False(t, v.Correct)

	view := s.View()
	assert.Empty(t, view.Selected, "cleared immediately")
	assert.True(t, view.WrongGuess)
	assert.Empty(t, view.Groups)

	assert.Eventually(t, func() bool { return !s.View().WrongGuess }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return notified.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, s.View().Groups)
}

func TestSessionCheckFailureIsSilent(t *testing.T) {
	ctx := context.Background()
	auth, st := newFakeAuthority(), newMapStore()
	auth.checkErr = errDown
	s := loaded(t, auth, st)
	selectAll(t, s, 3, 7, 11, 15)

	_, err := s.Submit(ctx)
	require.ErrorIs(t, err, ErrFetch)

	view := s.View()
	assert.Equal(t, StatePlaying, view.State)
	assert.Empty(t, view.Selected)
	assert.False(t, view.WrongGuess)
	assert.Empty(t, view.Groups)
	_, ok := st.raw(solvedKey(testPuzzle))
	assert.False(t, ok)
}

func TestSessionTogglesWhileChecking(t *testing.T) {
	ctx := context.Background()
	auth := newFakeAuthority()
	gate := make(chan struct{})
	auth.gate = gate
	s := loaded(t, auth, newMapStore())
	selectAll(t, s, 3, 7, 11, 15)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return s.State() == StateChecking }, time.Second, time.Millisecond)

	_, err := s.Submit(ctx)
	assert.ErrorIs(t, err, ErrChecking)
	assert.False(t, s.View().CanSubmit)
	require.NoError(t, s.Toggle(ctx, 15))
	require.NoError(t, s.Toggle(ctx, 1))

	close(gate)
	require.NoError(t, <-done)
	view := s.View()
	assert.Empty(t, view.Selected, "verdict clears picks made meanwhile")
	require.Len(t, view.Groups, 1)
	assert.Equal(t, []int{3, 7, 11, 15}, tileIDs(view.Groups[0].Tiles), "submitted ids are recorded")
}

func TestSessionCompletionFetchesConnectionsOnce(t *testing.T) {
	ctx := context.Background()
	auth := newFakeAuthority()
	s := loaded(t, auth, newMapStore())

	for i, g := range testGroups {
		selectAll(t, s, g.ids...)
		_, err := s.Submit(ctx)
		require.NoError(t, err)
		if i < len(testGroups)-1 {
			assert.False(t, s.View().Complete)
			fired, err := s.FetchConnections(ctx)
			require.NoError(t, err)
			assert.False(t, fired, "nothing to fetch before completion")
		}
	}
	_, _, conns := auth.calls()
	assert.Zero(t, conns, "the verdict returns before any connections request")
	for _, g := range s.View().Groups {
		assert.False(t, g.Canonical)
	}

	fired, err := s.FetchConnections(ctx)
	require.NoError(t, err)
	assert.True(t, fired)
	fired, err = s.FetchConnections(ctx)
	require.NoError(t, err)
	assert.False(t, fired)

	view := s.View()
	assert.True(t, view.Complete)
	assert.Empty(t, view.Tiles)
	assert.False(t, view.CanSubmit)
	_, _, conns = auth.calls()
	assert.Equal(t, 1, conns)
	for i, g := range view.Groups {
		assert.True(t, g.Canonical)
		assert.Equal(t, testGroups[i].name, g.Label)
	}
}

func TestSessionReloadRetriesFailedConnections(t *testing.T) {
	ctx := context.Background()
	auth, st := newFakeAuthority(), newMapStore()
	auth.connErr = errDown
	s := loaded(t, auth, st)
	for _, g := range testGroups {
		selectAll(t, s, g.ids...)
		_, err := s.Submit(ctx)
		require.NoError(t, err)
	}
	_, err := s.FetchConnections(ctx)
	require.ErrorIs(t, err, ErrFetch)
	for _, g := range s.View().Groups {
		assert.False(t, g.Canonical)
	}

	auth.set(func(f *fakeAuthority) { f.connErr = nil })
	require.NoError(t, s.Load(ctx))
	_, _, conns := auth.calls()
	assert.Equal(t, 2, conns)
	for _, g := range s.View().Groups {
		assert.True(t, g.Canonical)
	}
}

func TestSessionRestoresProgress(t *testing.T) {
	ctx := context.Background()
	auth, st := newFakeAuthority(), newMapStore()
	s := loaded(t, auth, st, WithShuffle(reverseShuffle))
	selectAll(t, s, 3, 7, 11, 15)
	_, err := s.Submit(ctx)
	require.NoError(t, err)
	selectAll(t, s, 1, 5)
	before := s.View()
	s.Close()

	// A fresh session over the same store sees the same board.
	again := loaded(t, auth, st, WithShuffle(noShuffle))
	if diff := cmp.Diff(before, again.View()); diff != "" {
		t.Fatalf("restored view mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionLoadSanitizesSelection(t *testing.T) {
	ctx := context.Background()
	st := newMapStore()
	require.NoError(t, st.Set(ctx, solvedKey(testPuzzle), []byte(`[{"ids":[3,7,11,15],"linkText":"Capitals"}]`)))
	require.NoError(t, st.Set(ctx, selectionKey(testPuzzle), []byte(`[3,1,42,5]`)))

	s := loaded(t, newFakeAuthority(), st)
	assert.Equal(t, []int{1, 5}, s.View().Selected)
}

func TestSessionLoadDiscardsCorruptState(t *testing.T) {
	ctx := context.Background()
	st := newMapStore()
	require.NoError(t, st.Set(ctx, solvedKey(testPuzzle), []byte(`garbage`)))
	require.NoError(t, st.Set(ctx, selectionKey(testPuzzle), []byte(`{}`)))

	s := loaded(t, newFakeAuthority(), st)
	view := s.View()
	assert.Empty(t, view.Groups)
	assert.Empty(t, view.Selected)
	assert.Len(t, view.Tiles, 16)
}

func TestSessionReset(t *testing.T) {
	ctx := context.Background()
	auth, st := newFakeAuthority(), newMapStore()
	const other PuzzleID = "2"
	require.NoError(t, st.Set(ctx, orderKey(other), []byte(`[]`)))

	shuffles := 0
	countingShuffle := func(n int, swap func(i, j int)) {
		shuffles++
		if shuffles > 1 {
			reverseShuffle(n, swap)
		}
	}
	s := loaded(t, auth, st, WithShuffle(countingShuffle))
	firstOrder := tileIDs(tilesOf(s.View()))
	selectAll(t, s, 3, 7, 11, 15)
	_, err := s.Submit(ctx)
	require.NoError(t, err)
	selectAll(t, s, 1)

	require.NoError(t, s.Reset(ctx))
	view := s.View()
	assert.Equal(t, StatePlaying, view.State)
	assert.Empty(t, view.Groups)
	assert.Empty(t, view.Selected)
	assert.Len(t, view.Tiles, 16)
	assert.NotEqual(t, firstOrder, tileIDs(tilesOf(view)), "reset reshuffles")
	assert.Equal(t, 2, shuffles)

	_, ok := st.raw(orderKey(other))
	assert.True(t, ok, "other puzzles untouched")
	_, ok = st.raw(solvedKey(testPuzzle))
	assert.False(t, ok)
	_, ok = st.raw(selectionKey(testPuzzle))
	assert.False(t, ok)
}

func TestClearProgressDeletesExactlyThreeKeys(t *testing.T) {
	ctx := context.Background()
	st := newMapStore()
	for _, k := range append(Keys(testPuzzle), "connections/2/order", "unrelated") {
		require.NoError(t, st.Set(ctx, k, []byte(`1`)))
	}
	require.NoError(t, ClearProgress(ctx, st, testPuzzle))
	assert.Equal(t, []string{"connections/2/order", "unrelated"}, st.keys())
}

func TestSessionDiscardsVerdictAfterReset(t *testing.T) {
	ctx := context.Background()
	auth, st := newFakeAuthority(), newMapStore()
	gate := make(chan struct{})
	auth.gate = gate
	s := loaded(t, auth, st)
	selectAll(t, s, 3, 7, 11, 15)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return s.State() == StateChecking }, time.Second, time.Millisecond)

	require.NoError(t, s.Reset(ctx))
	close(gate)
	require.ErrorIs(t, <-done, ErrStale)

	assert.Empty(t, s.View().Groups)
	_, ok := st.raw(solvedKey(testPuzzle))
	assert.False(t, ok, "stale verdict never persisted")
}

func tilesOf(v View) []Tile {
	out := make([]Tile, len(v.Tiles))
	for i, tv := range v.Tiles {
		out[i] = tv.Tile
	}
	return out
}
