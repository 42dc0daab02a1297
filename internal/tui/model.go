// internal/tui/model.go
//
// Bubble Tea host for a game.Session.
//
// The model never keeps its own copy of game state: every update re-snapshots
// session.View(). Network-bound calls (load, submit, reset) run as tea.Cmds so
// the board keeps accepting toggles while a check is in flight. The canonical
// connections request runs as its own command after the verdict that completes
// the puzzle, so that verdict shows immediately. Changes that
// happen off the UI goroutine, such as the wrong-guess flag expiring, arrive on
// the updates channel and trigger a refresh.

package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/robalobadob/connections/internal/game"
)

const columns = 4

type (
	loadedMsg  struct{ err error }
	resetMsg   struct{ err error }
	refreshMsg struct{}
	// connectionsMsg follows the connections request issued on completion.
	connectionsMsg struct{ err error }
	verdictMsg struct {
		verdict game.Verdict
		err     error
	}
)

// Model is the Bubble Tea model for one puzzle.
type Model struct {
	ctx     context.Context
	sess    *game.Session
	updates <-chan struct{}

	keys keyMap
	help help.Model

	view    game.View
	cursor  int
	status  string
	loadErr error
}

// New returns a model hosting sess. updates should receive a value whenever the
// session's notify callback fires.
func New(ctx context.Context, sess *game.Session, updates <-chan struct{}) Model {
	m := Model{
		ctx:     ctx,
		sess:    sess,
		updates: updates,
		keys:    newKeyMap(),
		help:    help.New(),
		status:  "loading…",
	}
	m.refresh()
	return m
}

// Snapshot returns the last session view the model rendered from.
func (m Model) Snapshot() game.View { return m.view }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForUpdate())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case loadedMsg:
		m.loadErr = msg.err
		switch {
		case msg.err == nil:
			m.status = ""
		case errors.Is(msg.err, game.ErrStale):
			// a reset superseded this load
		case errors.Is(msg.err, game.ErrFetch):
			m.status = "tiles unavailable, press r to retry"
		default:
			m.status = "could not load puzzle: " + msg.err.Error()
		}
		m.refresh()
		return m, nil

	case resetMsg:
		m.loadErr = msg.err
		m.cursor = 0
		switch {
		case msg.err == nil:
			m.status = "puzzle reset"
		case errors.Is(msg.err, game.ErrFetch):
			m.status = "tiles unavailable, press r to retry"
		default:
			m.status = "reset failed: " + msg.err.Error()
		}
		m.refresh()
		return m, nil

	case verdictMsg:
		switch {
		case errors.Is(msg.err, game.ErrStale), errors.Is(msg.err, game.ErrChecking):
		case errors.Is(msg.err, game.ErrFetch):
			m.status = "could not reach the puzzle server"
		case msg.err != nil:
			m.status = msg.err.Error()
		case msg.verdict.Correct:
			m.status = "correct: " + msg.verdict.LinkText
		default:
			m.status = "not a group"
		}
		m.refresh()
		if msg.err == nil && m.view.Complete {
			return m, m.fetchConnections()
		}
		return m, nil

	case connectionsMsg:
		// failures keep the provisional labels and are only logged
		m.refresh()
		return m, nil

	case refreshMsg:
		m.refresh()
		return m, m.waitForUpdate()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Left):
		m.move(-1)
	case key.Matches(msg, m.keys.Right):
		m.move(1)
	case key.Matches(msg, m.keys.Up):
		m.move(-columns)
	case key.Matches(msg, m.keys.Down):
		m.move(columns)
	case key.Matches(msg, m.keys.Toggle):
		m.toggle()
	case key.Matches(msg, m.keys.Submit):
		if !m.view.CanSubmit {
			return m, nil
		}
		m.status = "checking…"
		return m, m.submit()
	case key.Matches(msg, m.keys.Retry):
		if m.loadErr == nil {
			return m, nil
		}
		m.status = "loading…"
		return m, m.load()
	case key.Matches(msg, m.keys.Reset):
		m.status = "resetting…"
		return m, m.reset()
	}
	return m, nil
}

func (m *Model) move(delta int) {
	n := len(m.view.Tiles)
	if n == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 || next >= n {
		return
	}
	m.cursor = next
}

func (m *Model) toggle() {
	if m.cursor >= len(m.view.Tiles) {
		return
	}
	if err := m.sess.Toggle(m.ctx, m.view.Tiles[m.cursor].ID); err != nil {
		m.status = err.Error()
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.view = m.sess.View()
	m.keys.playing(m.view.State != game.StateLoading)
	if m.cursor >= len(m.view.Tiles) {
		m.cursor = max(len(m.view.Tiles)-1, 0)
	}
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg { return loadedMsg{err: m.sess.Load(m.ctx)} }
}

func (m Model) reset() tea.Cmd {
	return func() tea.Msg { return resetMsg{err: m.sess.Reset(m.ctx)} }
}

func (m Model) submit() tea.Cmd {
	return func() tea.Msg {
		v, err := m.sess.Submit(m.ctx)
		return verdictMsg{verdict: v, err: err}
	}
}

func (m Model) fetchConnections() tea.Cmd {
	return func() tea.Msg {
		_, err := m.sess.FetchConnections(m.ctx)
		return connectionsMsg{err: err}
	}
}

func (m Model) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return nil
		case <-m.updates:
			return refreshMsg{}
		}
	}
}
