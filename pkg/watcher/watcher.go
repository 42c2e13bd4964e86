// Package watcher invalidates compiled views when files under the watched
// disk roots change.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits after the last change
// before invalidating.
const DefaultDebounce = 200 * time.Millisecond

// Invalidator drops compiled views. *view.View satisfies it.
type Invalidator interface {
	Invalidate(names ...string)
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Invalidations int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period that must pass after the last event
// before the target is invalidated.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtension limits the files that trigger an invalidation to those with
// the given extension. Directory events are always handled.
func WithExtension(ext string) Option {
	return func(w *Watcher) {
		w.extension = strings.TrimSpace(ext)
	}
}

// WithLogger sets the logger used for watch events.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher watches directory trees and invalidates its target once a burst
// of changes has settled.
type Watcher struct {
	mu        sync.RWMutex
	watcher   *fsnotify.Watcher
	target    Invalidator
	debounce  time.Duration
	extension string
	logger    *zap.Logger

	pending   bool
	lastEvent time.Time
	stats     Stats

	stopCh    chan struct{}
	doneCh    chan struct{}
	running   bool
	started   bool
	closeOnce sync.Once
}

// New creates a Watcher for target. Call Add for each root, then Start.
func New(target Invalidator, opts ...Option) (*Watcher, error) {
	if target == nil {
		return nil, errors.New("watcher: target is required")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: create: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		target:   target,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Add watches root and every directory below it.
func (w *Watcher) Add(root string) error {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watcher: add %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watcher: add %s: not a directory", root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watcher: add %s: %w", path, err)
		}
		w.logger.Debug("watching directory", zap.String("path", path))
		return nil
	})
}

// WatchList returns the directories being watched.
func (w *Watcher) WatchList() []string {
	return w.watcher.WatchList()
}

// Start runs the event loop in a goroutine. It returns immediately; calling
// it on a running watcher is a no-op. A stopped watcher cannot be restarted.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if w.started {
		w.mu.Unlock()
		return errors.New("watcher: already stopped")
	}
	w.running = true
	w.started = true
	w.mu.Unlock()

	go w.run(ctx)
	return nil
}

// Stop stops the event loop, waits for it to exit and releases the
// underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}

	w.closeOnce.Do(func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("closing watcher", zap.Error(err))
		}
	})
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Stats returns a snapshot of the watcher statistics.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 4
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	isDir := false
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			isDir = true
			if err := w.Add(event.Name); err != nil {
				w.logger.Warn("watching new directory", zap.String("path", event.Name), zap.Error(err))
			}
		}
	}

	if !isDir && !w.matches(event.Name) {
		return
	}

	w.logger.Debug("view file changed",
		zap.String("path", event.Name),
		zap.String("op", event.Op.String()),
	)

	w.mu.Lock()
	w.pending = true
	w.lastEvent = time.Now()
	w.stats.Events++
	w.stats.LastEventPath = event.Name
	w.stats.LastEventTime = w.lastEvent
	w.mu.Unlock()
}

func (w *Watcher) matches(name string) bool {
	if w.extension == "" {
		return true
	}
	// removed directories cannot be stat'ed, so names without an extension
	// are treated as potential directories
	ext := filepath.Ext(name)
	return ext == "" || ext == w.extension
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastEvent) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.stats.Invalidations++
	w.mu.Unlock()

	w.logger.Debug("invalidating compiled views")
	w.target.Invalidate()
}
