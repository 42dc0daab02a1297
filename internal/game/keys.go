package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const keyPrefix = "connections/"

// errCorrupt marks a persisted value that no longer decodes.
var errCorrupt = errors.New("corrupt persisted value")

func orderKey(id PuzzleID) string     { return keyPrefix + string(id) + "/order" }
func selectionKey(id PuzzleID) string { return keyPrefix + string(id) + "/selection" }
func solvedKey(id PuzzleID) string    { return keyPrefix + string(id) + "/solved" }

// Keys lists every persisted key for a puzzle: order, selection, solved.
func Keys(id PuzzleID) []string {
	return []string{orderKey(id), selectionKey(id), solvedKey(id)}
}

// ClearProgress deletes exactly the persisted keys for id.
func ClearProgress(ctx context.Context, st Store, id PuzzleID) error {
	if err := st.Delete(ctx, Keys(id)...); err != nil {
		return fmt.Errorf("clear progress %s: %w", id, err)
	}
	return nil
}

func saveJSON(ctx context.Context, st Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := st.Set(ctx, key, b); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// loadJSON reports found=false for a missing key. Undecodable values wrap
// errCorrupt so the caller can discard them instead of failing the load.
func loadJSON(ctx context.Context, st Store, key string, v any) (bool, error) {
	b, ok, err := st.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return true, fmt.Errorf("decode %s: %w: %w", key, errCorrupt, err)
	}
	return true, nil
}
