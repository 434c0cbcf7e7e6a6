package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchRules reloads the rule table into the tracker whenever the file at
// path changes. A file that fails to parse is reported through warn and
// the previous table stays in effect. Blocks until ctx is done.
//
// The parent directory is watched rather than the file itself so that
// editors which replace the file (rename over it) keep triggering reloads.
func WatchRules(ctx context.Context, path string, t *Tracker, warn func(error)) error {
	if warn == nil {
		warn = func(error) {}
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create rules watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve rules path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch rules dir: %w", err)
	}

	// Debounce: editors fire several events per save.
	var timer *time.Timer
	reload := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(100*time.Millisecond, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			rules, err := LoadRules(abs)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				warn(fmt.Errorf("reload rules: %w", err))
				continue
			}
			t.SetRules(rules)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			warn(fmt.Errorf("rules watcher: %w", err))
		}
	}
}
