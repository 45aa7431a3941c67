package usb

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher defaults.
const (
	DefaultWatchDir = "/dev/bus/usb"
	DefaultDebounce = 500 * time.Millisecond
)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Dir is watched together with its direct subdirectories
	// (default: DefaultWatchDir).
	Dir string

	// Debounce coalesces bursts of changes into one notification
	// (default: DefaultDebounce).
	Debounce time.Duration

	Logger *slog.Logger
}

// Watcher reports USB add/remove activity as a debounced signal.
type Watcher struct {
	cfg     WatcherConfig
	fs      *fsnotify.Watcher
	events  chan struct{}
	done    chan struct{}
	stopped chan struct{}

	mu        sync.Mutex
	timer     *time.Timer
	closeOnce sync.Once
}

// NewWatcher starts watching cfg.Dir.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Dir == "" {
		cfg.Dir = DefaultWatchDir
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		cfg:     cfg,
		fs:      fsw,
		events:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	if err := fsw.Add(cfg.Dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", cfg.Dir, err)
	}
	entries, err := os.ReadDir(cfg.Dir)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() {
				w.add(filepath.Join(cfg.Dir, e.Name()))
			}
		}
	}

	go w.loop()
	return w, nil
}

// Events delivers one value per debounced burst of changes. A pending
// notification absorbs later ones until it is received.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops watching. Events is not closed.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
		<-w.stopped

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
	return err
}

func (w *Watcher) add(dir string) {
	if err := w.fs.Add(dir); err != nil && w.cfg.Logger != nil {
		w.cfg.Logger.Warn("usb watch failed", "dir", dir, "error", err)
	}
}

func (w *Watcher) loop() {
	defer close(w.stopped)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if w.cfg.Logger != nil {
				w.cfg.Logger.Warn("usb watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
		return
	}
	// A new bus directory needs its own watch.
	if ev.Has(fsnotify.Create) && filepath.Dir(ev.Name) == filepath.Clean(w.cfg.Dir) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.add(ev.Name)
		}
	}
	if w.cfg.Logger != nil {
		w.cfg.Logger.Debug("usb node changed", "op", ev.Op.String(), "path", ev.Name)
	}
	w.trigger()
}

// trigger (re)arms the debounce timer.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.cfg.Debounce, w.fire)
}

func (w *Watcher) fire() {
	select {
	case <-w.done:
		return
	default:
	}
	select {
	case w.events <- struct{}{}:
	default:
	}
}
