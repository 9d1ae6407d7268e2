// Package watch reports edits to chart and catalog files so long-running
// commands can recompute.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is how long a file must stay quiet before its change is emitted.
const Debounce = 100 * time.Millisecond

// Change is one settled file change.
type Change struct {
	Path    string // Absolute path
	Removed bool
}

// Watcher monitors a fixed set of files. Parent directories are watched so
// editors that save by rename are still seen.
type Watcher struct {
	Changes <-chan Change // Read-only external channel

	changes chan Change // Internal write channel
	done    chan struct{}
	files   map[string]bool
	dirs    map[string]bool
	watcher *fsnotify.Watcher
	stop    sync.Once
}

// New creates a watcher for the given files.
func New(paths ...string) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("watch: no files given")
	}

	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: %s: %w", p, err)
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	ch := make(chan Change, 16)
	return &Watcher{
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		files:   files,
		dirs:    dirs,
		watcher: fw,
	}, nil
}

// Start begins watching. On error the watcher is already stopped.
func (w *Watcher) Start() error {
	for dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			close(w.done)
			w.Stop()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel. Safe to call twice.
func (w *Watcher) Stop() {
	w.stop.Do(func() {
		w.watcher.Close()
		<-w.done
		close(w.changes)
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(Debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emit(file)
				}
				return
			}
			name := filepath.Clean(event.Name)
			if !w.files[name] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[name] = time.Now()
			}

		case now := <-ticker.C:
			for file, t := range pending {
				if now.Sub(t) >= Debounce {
					w.emit(file)
					delete(pending, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}

// emit never blocks; a full channel already holds a pending reload.
func (w *Watcher) emit(file string) {
	_, err := os.Stat(file)
	select {
	case w.changes <- Change{Path: file, Removed: os.IsNotExist(err)}:
	default:
	}
}
