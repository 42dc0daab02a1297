// internal/game/session.go
//
// GameSession: the state machine a view renders against for one puzzle.
//
// States:
//   loading  → playing            tiles loaded and progress restored
//   playing  → checking           four tiles selected and submitted
//   checking → playing            verdict applied (correct, incorrect or failed)
//   any      → loading            explicit reset
//
// Every verdict clears the selection. A correct verdict appends a group. Once all
// tiles are solved the host calls FetchConnections for the one-off canonical
// connections request; Submit returns before it so the verdict shows at once. An
// incorrect verdict raises the wrong-guess flag for a fixed window. Fetch errors
// are logged and otherwise silent.
//
// Network calls run without holding the session lock, so toggles stay responsive
// while a check is in flight. Each reset starts a new epoch; results that come
// back for an older epoch are discarded.

package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultWrongGuessWindow is how long the wrong-guess flag stays raised.
const DefaultWrongGuessWindow = time.Second

// Option configures a Session.
type Option func(*Session)

// WithWrongGuessWindow overrides DefaultWrongGuessWindow.
func WithWrongGuessWindow(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithShuffle overrides the tile shuffle used on first load.
func WithShuffle(f ShuffleFunc) Option {
	return func(s *Session) { s.shuffle = f }
}

// WithNotify registers a callback for changes that happen outside a method call,
// such as the wrong-guess flag clearing. It must not block.
func WithNotify(f func()) Option {
	return func(s *Session) { s.notify = f }
}

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Session owns all state for one puzzle. Methods are safe for concurrent use.
type Session struct {
	id        string
	puzzleID  PuzzleID
	authority Authority
	store     Store
	window    time.Duration
	shuffle   ShuffleFunc
	notify    func()
	log       zerolog.Logger

	catalog  *Catalog
	verifier *Verifier

	mu        sync.Mutex
	epoch     uint64
	state     State
	order     []Tile
	byID      map[int]Tile
	selection *Selection
	ledger    *Ledger
}

// NewSession builds a session in the loading state. Call Load before use.
func NewSession(id PuzzleID, a Authority, st Store, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		puzzleID:  id,
		authority: a,
		store:     st,
		window:    DefaultWrongGuessWindow,
		log:       log.Logger,
		state:     StateLoading,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("puzzle", id.String()).Str("session", s.id).Logger()
	s.catalog = NewCatalog(a, st, s.shuffle)
	s.catalog.log = s.log
	s.verifier = NewVerifier(a)
	s.selection = NewSelection(st, id)
	s.ledger = s.newLedger(nil)
	return s
}

// ID identifies this session instance in logs.
func (s *Session) ID() string { return s.id }

func (s *Session) PuzzleID() PuzzleID { return s.puzzleID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) newLedger(order []Tile) *Ledger {
	l := NewLedger(s.store, s.puzzleID, order, s.window, s.notify)
	l.log = s.log
	return l
}

// Load fetches or restores the tile order, restores selection and ledger, and
// moves to playing. On failure the session stays loading with nothing changed;
// the caller shows "tiles unavailable". A restored complete ledger fetches its
// connections here, which is how a failed fetch gets retried on reload.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	order, err := s.catalog.Load(ctx, s.puzzleID)
	if err != nil {
		if errors.Is(err, ErrFetch) {
			s.log.Warn().Err(err).Msg("tiles unavailable")
		} else {
			s.log.Error().Err(err).Msg("load tile order")
		}
		return err
	}

	ledger := s.newLedger(order)
	if dropped, err := ledger.restore(ctx); errors.Is(err, errCorrupt) {
		s.log.Warn().Err(err).Msg("discarding unreadable ledger")
	} else if err != nil {
		return err
	} else if dropped {
		s.log.Warn().Msg("persisted ledger had invalid groups")
	}

	selection := NewSelection(s.store, s.puzzleID)
	known := make(map[int]Tile, len(order))
	for _, t := range order {
		known[t.ID] = t
	}
	keep := func(id int) bool {
		_, ok := known[id]
		return ok && !ledger.IsSolved(id)
	}
	if dropped, err := selection.restore(ctx, keep); errors.Is(err, errCorrupt) {
		s.log.Warn().Err(err).Msg("discarding unreadable selection")
	} else if err != nil {
		return err
	} else if dropped {
		s.log.Debug().Msg("trimmed persisted selection")
	}

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		ledger.Close()
		s.log.Debug().Msg("discarding load for superseded epoch")
		return ErrStale
	}
	s.epoch++
	s.ledger.Close()
	s.order, s.byID = order, known
	s.selection, s.ledger = selection, ledger
	s.state = StatePlaying
	s.mu.Unlock()

	s.log.Info().Int("tiles", len(order)).Int("solved", len(ledger.Groups())).Msg("session loaded")
	_, _ = s.fetchConnections(ctx, ledger)
	return nil
}

// Toggle selects or deselects an unsolved tile. It is allowed while a check is
// in flight; the verdict then clears whatever is selected.
func (s *Session) Toggle(ctx context.Context, tileID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLoading {
		return ErrNotLoaded
	}
	if _, ok := s.byID[tileID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTile, tileID)
	}
	if s.ledger.IsSolved(tileID) {
		return fmt.Errorf("%w: %d", ErrTileSolved, tileID)
	}
	if _, err := s.selection.Toggle(ctx, tileID); err != nil {
		s.log.Error().Err(err).Int("tile", tileID).Msg("persist selection")
		return err
	}
	return nil
}

// Submit sends the current four-tile selection for checking.
//
// The returned error is ErrPrecondition for a wrong-sized selection, ErrChecking
// while another check is in flight, a *FetchError when the authority could not be
// reached (selection cleared, nothing recorded, no feedback), or ErrStale when the
// session was reset meanwhile.
func (s *Session) Submit(ctx context.Context) (Verdict, error) {
	s.mu.Lock()
	switch {
	case s.state == StateLoading:
		s.mu.Unlock()
		return Verdict{}, ErrNotLoaded
	case s.state == StateChecking:
		s.mu.Unlock()
		return Verdict{}, ErrChecking
	case s.selection.Len() != GroupSize:
		n := s.selection.Len()
		s.mu.Unlock()
		return Verdict{}, fmt.Errorf("%w: got %d", ErrPrecondition, n)
	}
	ids := s.selection.IDs()
	epoch, ledger := s.epoch, s.ledger
	s.state = StateChecking
	s.mu.Unlock()

	verdict, err := s.verifier.Submit(ctx, s.puzzleID, ids)

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		s.log.Debug().Ints("ids", ids).Msg("discarding verdict for superseded epoch")
		return Verdict{}, ErrStale
	}
	s.state = StatePlaying
	if cerr := s.selection.Clear(ctx); cerr != nil {
		s.log.Error().Err(cerr).Msg("persist cleared selection")
	}

	switch {
	case err != nil:
		s.mu.Unlock()
		s.log.Warn().Err(err).Ints("ids", ids).Msg("guess check failed")
		return Verdict{}, err
	case !verdict.Correct:
		ledger.RecordIncorrect()
		s.mu.Unlock()
		s.log.Debug().Ints("ids", ids).Msg("incorrect guess")
		return verdict, nil
	}

	if rerr := ledger.RecordCorrect(ctx, ids, verdict.LinkText); rerr != nil {
		s.mu.Unlock()
		s.log.Error().Err(rerr).Ints("ids", ids).Msg("record solved group")
		return verdict, rerr
	}
	s.mu.Unlock()
	s.log.Info().Ints("ids", ids).Str("link", verdict.LinkText).Msg("group solved")
	return verdict, nil
}

// Reset deletes every persisted key for the puzzle and reloads from scratch,
// which reshuffles the tiles. In-flight results from before the reset are
// discarded.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.epoch++
	s.state = StateLoading
	s.ledger.Close()
	s.order, s.byID = nil, nil
	s.selection = NewSelection(s.store, s.puzzleID)
	s.ledger = s.newLedger(nil)
	err := ClearProgress(ctx, s.store, s.puzzleID)
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Msg("reset progress")
		return err
	}
	s.log.Info().Msg("progress reset")
	return s.Load(ctx)
}

// Close stops pending timers. The session must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.ledger.Close()
}

// FetchConnections issues the canonical connections request for a complete
// puzzle. It does nothing before completion or once the current ledger has
// already asked; fired reports whether a request went out. A failure is a
// *FetchError and leaves the provisional labels showing.
func (s *Session) FetchConnections(ctx context.Context) (fired bool, err error) {
	s.mu.Lock()
	ledger := s.ledger
	s.mu.Unlock()
	return s.fetchConnections(ctx, ledger)
}

func (s *Session) fetchConnections(ctx context.Context, l *Ledger) (bool, error) {
	fired, err := l.FetchConnectionsIfComplete(ctx, s.authority)
	switch {
	case errors.Is(err, ErrStale):
		s.log.Debug().Msg("discarding connections for superseded epoch")
	case err != nil:
		// already logged by the ledger
	case fired:
		s.log.Info().Int("connections", len(l.Connections())).Msg("puzzle complete")
	}
	return fired, err
}
