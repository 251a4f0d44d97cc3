package importer

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before a change is
// reported. Editors often write a file in several steps.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reports changes to one import file. It watches the file's
// directory so saves that replace the file (write to temp, then rename)
// are seen too.
type Watcher struct {
	Path    string
	Changes <-chan struct{} // one value per settled burst of writes

	// Logger receives errors reported by the file system. Nil means
	// slog.Default().
	Logger *slog.Logger

	changes  chan struct{}
	done     chan struct{}
	started  atomic.Bool
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// NewWatcher creates a watcher for path. Call Start to begin watching.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ch := make(chan struct{}, 1)
	return &Watcher{
		Path:     abs,
		Changes:  ch,
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
		debounce: debounce,
	}, nil
}

// Start begins watching. A watcher starts at most once.
func (w *Watcher) Start() error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watcher for %s already started", w.Path)
	}
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		w.watcher.Close()
		w.closeChannels()
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.Path), err)
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel. It is safe to call more
// than once, and on a watcher that was never started.
func (w *Watcher) Stop() {
	w.watcher.Close()
	if w.started.CompareAndSwap(false, true) {
		w.closeChannels()
	}
	<-w.done
}

func (w *Watcher) closeChannels() {
	close(w.changes)
	close(w.done)
}

func (w *Watcher) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

func (w *Watcher) loop() {
	defer w.closeChannels()

	ticker := time.NewTicker(w.debounce / 3)
	defer ticker.Stop()

	var lastEvent time.Time
	pending := false
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = true
				lastEvent = time.Now()
			}

		case <-ticker.C:
			if pending && time.Since(lastEvent) >= w.debounce {
				pending = false
				select {
				case w.changes <- struct{}{}:
				default:
					// A change is already waiting to be read.
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger().Warn("file watcher error", "path", w.Path, "error", err)
		}
	}
}
