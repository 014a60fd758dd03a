// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/ollama-ui/internal/logging"
)

// =============================================================================
// THEME WATCHER
// =============================================================================

// Reload is the outcome of re-reading the theme file after a change.
type Reload struct {
	Theme *Theme
	Err   error
}

// Watcher reloads a theme file whenever it changes on disk.
//
// The parent directory is watched rather than the file itself so editors
// that save by writing a new file and renaming it over the old one are
// still seen. Bursts of events within the debounce window produce one
// reload.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	reloads  chan Reload
	log      *logging.Logger

	mu      sync.Mutex
	pending time.Time // last unprocessed change, zero when none

	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewWatcher creates a watcher for the theme file at path.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     abs,
		watcher:  fw,
		debounce: debounce,
		reloads:  make(chan Reload, 1),
		log:      logging.For("theme"),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// Watch starts watching. Results arrive on Reloads.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.started = true
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); w.processEvents() }()
	go func() { defer wg.Done(); w.processPending() }()
	go func() { wg.Wait(); close(w.done) }()

	w.log.Info("watching theme file", "path", w.path)
	return nil
}

// Reloads delivers one Reload per settled change. Only the newest result is
// kept if the reader falls behind.
func (w *Watcher) Reloads() <-chan Reload {
	return w.reloads
}

// processEvents records changes to the theme file.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("theme watcher error", "error", err)
		}
	}
}

// processPending reloads once the file has been quiet for the debounce window.
func (w *Watcher) processPending() {
	tick := w.debounce / 2
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if due {
				w.reload()
			}
		}
	}
}

func (w *Watcher) reload() {
	theme, err := LoadTheme(w.path)
	if err != nil {
		w.log.Warn("theme reload failed", "path", w.path, "error", err)
	} else {
		w.log.Info("theme reloaded", "path", w.path)
	}
	r := Reload{Theme: theme, Err: err}

	// drop a stale unread result in favour of this one
	select {
	case <-w.reloads:
	default:
	}
	select {
	case w.reloads <- r:
	case <-w.ctx.Done():
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	if w.started {
		<-w.done
	}
	return err
}
