package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/timetolife1989-cloud/mechdefense/internal/sim"
)

const debounce = 100 * time.Millisecond

// Watcher reports changes to a set of files. Their directories are watched
// so editors that replace files on save are still seen.
type Watcher struct {
	watcher *fsnotify.Watcher
	files   map[string]struct{}
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher starts watching files.
func NewWatcher(files ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watched := make(map[string]struct{}, len(files))
	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		watched[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		files:   watched,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher. Events and Errors are closed once the loop exits.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Errors)
	defer close(w.Events)

	last := make(map[string]time.Time)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if _, ok := w.files[name]; !ok {
				continue
			}
			now := time.Now()
			if t, ok := last[name]; ok && now.Sub(t) < debounce {
				continue
			}
			last[name] = now
			select {
			case w.Events <- name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// WatchWaves reloads the waves file on change and forwards valid content to
// out. Invalid content is logged and the running waves are kept.
// Blocks until ctx is canceled.
func WatchWaves(ctx context.Context, path string, out chan<- sim.Reload) error {
	w, err := NewWatcher(path)
	if err != nil {
		return err
	}
	defer w.Close()

	slog.Info("watching waves file", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case name, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Let the writer finish before reading.
			time.Sleep(debounce)
			if _, err := os.Stat(name); err != nil {
				// Removed or mid-rename; the following create reloads it.
				continue
			}
			waves, err := LoadWaves(name)
			if err != nil {
				slog.Error("waves reload rejected", "path", name, "error", err)
				continue
			}
			select {
			case out <- waves.Reload():
				slog.Info("waves reloaded",
					"path", name,
					"waves", len(waves.Definitions),
					"archetypes", waves.Archetypes.Len())
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("waves watcher error", "error", err)
		}
	}
}
