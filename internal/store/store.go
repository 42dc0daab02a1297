package store

import (
	"github.com/robalobadob/connections/internal/game"
)

var (
	_ game.Store = (*Memory)(nil)
	_ game.Store = (*SQLite)(nil)
)

// Open returns the store selected by path: ":memory:" or "" for an in-memory
// store, anything else for a SQLite file.
func Open(path string) (st game.Store, closeFn func() error, err error) {
	if path == "" || path == ":memory:" {
		return NewMemory(), func() error { return nil }, nil
	}
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}
