package fixtures

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// reloadDelay batches the burst of events an editor save produces.
const reloadDelay = 200 * time.Millisecond

// Watch reloads path into c whenever the file changes, until ctx is done.
// The parent directory is watched so editors that save by rename are seen.
// A file that fails to parse is logged and the previous puzzles stay live.
func Watch(ctx context.Context, path string, c *Catalog) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch puzzles: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	log.Info().Str("file", target).Msg("watching puzzles")

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			pending = time.After(reloadDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("puzzle watcher")
		case <-pending:
			pending = nil
			reload(target, c)
		}
	}
}

func reload(path string, c *Catalog) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("keeping previous puzzles")
		return
	}
	ps, err := Parse(data)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("keeping previous puzzles")
		return
	}
	c.Replace(ps)
	log.Info().Int("puzzles", len(ps)).Str("file", path).Msg("puzzles reloaded")
}
