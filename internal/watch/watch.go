// Package watch reloads encounter definitions when files in the
// definitions directory change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/udisondev/raidtimers/internal/data"
)

// DefaultDebounce coalesces editor save bursts into one reload.
const DefaultDebounce = 250 * time.Millisecond

// ReloadFunc receives a freshly loaded catalog.
type ReloadFunc func(c *data.Catalog, res data.LoadResult)

// Watcher watches a definitions directory tree.
type Watcher struct {
	dir      string
	debounce time.Duration
	reload   ReloadFunc
	fsw      *fsnotify.Watcher
}

// New watches dir and every directory below it.
func New(dir string, debounce time.Duration, reload ReloadFunc) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{dir: dir, debounce: debounce, reload: reload, fsw: fsw}
	if err := w.addTree(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Run delivers reloads until ctx is cancelled. The watcher is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	slog.Info("watching encounter definitions", "dir", w.dir, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			slog.Debug("definitions changed", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("definitions watcher error", "error", err)

		case <-timer.C:
			w.load()
		}
	}
}

// relevant reports whether ev should trigger a reload. New directories
// are added to the watch set.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				slog.Warn("definitions watcher", "error", err)
			}
			// A new directory may already hold definitions.
			return true
		}
	}
	return data.IsDefinitionFile(ev.Name)
}

func (w *Watcher) load() {
	catalog, res, err := data.LoadEncounters(w.dir)
	if err != nil {
		slog.Error("reloading encounter definitions", "dir", w.dir, "error", err)
		return
	}
	w.reload(catalog, res)
}
