// Package watch delivers debounced change notifications for a set of files.
package watch

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the event bursts editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports writes to any of a fixed set of files on a single
// channel. Watch errors are delivered on the same channel.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer

	events chan error
}

// Files starts watching paths. A zero debounce uses DefaultDebounce.
func Files(debounce time.Duration, paths ...string) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		events:   make(chan error, 1),
	}
	go w.run()
	return w, nil
}

// Events yields nil after a debounced change and non-nil on watch errors.
// The channel closes when the Watcher is closed.
func (w *Watcher) Events() <-chan error { return w.events }

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) run() {
	defer close(w.events)
	for {
		select {
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.events <- err
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.bump()
			}
		}
	}
}

func (w *Watcher) bump() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.events <- nil:
		default:
		}
	})
}
