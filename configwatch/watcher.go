// Package configwatch notifies the engine when the on-disk config file
// changes, debounced to a single Reload per quiet period (spec.md §4.3).
// Grounded on other_examples' zaolin-framework-powerd idle monitor, which
// runs an fsnotify.Watcher event loop on its own goroutine and reacts to
// filesystem Create/Write events.
package configwatch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jdginn/padengine/logging"
)

// debounceWindow collapses the burst of events a single editor save
// produces (e.g. Vim's write-temp-then-rename, or a plain truncate+write)
// into one reload signal.
const debounceWindow = 500 * time.Millisecond

// Watcher emits a value on Changed every time the watched config file
// settles after a burst of modifications.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	Changed chan struct{}
}

// New opens an fsnotify watch on the directory containing path (so an
// atomic-save remove+rename is seen the same as an in-place write). The
// debounce loop runs in Run.
func New(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		watcher: fw,
		Changed: make(chan struct{}, 1),
	}
	return w, nil
}

// Run drives the debounce loop until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	log := logging.Get(logging.CONFIG)
	defer w.watcher.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounceWindow)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			select {
			case w.Changed <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher error", "err", err)
		}
	}
}
