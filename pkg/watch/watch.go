// Package watch provides an fsnotify-backed filesystem watcher that
// debounces rapid edits and forwards a single invalidation per settled
// file change to the loader orchestrator (spec §4.8 "a host may also
// signal... through a watch mode").
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Invalidator is the subset of *orchestrator.Loader this package drives.
// Kept as a local interface (rather than importing pkg/orchestrator)
// since a watcher has no other use for the orchestrator's Load method and
// this keeps pkg/watch usable against any cache with the same shape.
type Invalidator interface {
	Invalidate(file string)
}

// Options controls debounce timing and which paths to ignore.
type Options struct {
	// DebounceMs groups rapid edits to the same file into one invalidation.
	DebounceMs int
	// IgnorePatterns are filepath.Match patterns tested against a path's
	// base name.
	IgnorePatterns []string
}

// DefaultOptions returns sensible defaults for a TypeScript workspace.
func DefaultOptions() Options {
	return Options{DebounceMs: 200}
}

// extensions is the set of file extensions worth reacting to; anything
// else (images, JSON fixtures, etc.) never holds an export a load could
// need.
var extensions = map[string]bool{
	".ts": true, ".tsx": true, ".mts": true, ".cts": true,
}

var ignoredDirs = map[string]bool{
	"node_modules": true, ".git": true, "dist": true, "build": true, ".next": true,
}

// Watcher recursively watches a root directory and invalidates changed
// files against an Invalidator.
type Watcher struct {
	fsw     *fsnotify.Watcher
	inval   Invalidator
	logger  *slog.Logger
	options Options

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	mu       sync.Mutex
	stopped  bool
	stopChan chan struct{}
}

// New creates a Watcher. A nil logger uses slog.Default().
func New(inval Invalidator, options Options, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if options.DebounceMs == 0 {
		options.DebounceMs = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fsw:            fsw,
		inval:          inval,
		logger:         logger,
		options:        options,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start adds rootPath and every non-ignored subdirectory to the watch set
// and begins processing events in a background goroutine.
func (w *Watcher) Start(rootPath string) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("watch: watcher already stopped")
	}
	w.mu.Unlock()

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if w.shouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", rootPath, err)
	}

	w.logger.Info("watcher started", "root", rootPath)
	go w.eventLoop()
	return nil
}

// Stop tears down the watcher and any pending debounce timers. Idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	for _, t := range w.debounceTimers {
		t.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	return w.fsw.Close()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if !extensions[filepath.Ext(path)] {
		return
	}
	if w.shouldIgnoreDir(filepath.Dir(path)) {
		return
	}

	switch {
	case event.Op&fsnotify.Write == fsnotify.Write,
		event.Op&fsnotify.Create == fsnotify.Create:
		w.debounceInvalidate(path)
	case event.Op&fsnotify.Remove == fsnotify.Remove,
		event.Op&fsnotify.Rename == fsnotify.Rename:
		w.inval.Invalidate(path)
	}
}

// debounceInvalidate groups rapid edits to the same file so a save that
// triggers several consecutive write events only invalidates once.
func (w *Watcher) debounceInvalidate(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if t, exists := w.debounceTimers[path]; exists {
		t.Stop()
	}
	w.debounceTimers[path] = time.AfterFunc(
		time.Duration(w.options.DebounceMs)*time.Millisecond,
		func() {
			w.inval.Invalidate(path)
			w.debounceMu.Lock()
			delete(w.debounceTimers, path)
			w.debounceMu.Unlock()
		},
	)
}

func (w *Watcher) shouldIgnoreDir(path string) bool {
	base := filepath.Base(path)
	if ignoredDirs[base] {
		return true
	}
	for _, pattern := range w.options.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
