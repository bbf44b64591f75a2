package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports external changes to the config file.
//
// The parent directory is watched rather than the file itself so that
// editors which replace the file on save (rename-over) keep triggering
// events. Rapid event bursts are debounced into a single notification.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	changes chan struct{}
	done    chan struct{}
}

// Watch starts watching the config file at path for writes.
// Changes are reported on the Changes channel.
func Watch(path string) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fsw,
		path:    absPath,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	go w.watch()
	return w, nil
}

// Changes delivers one value per (debounced) config file modification.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *Watcher) watch() {
	var debounce *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// Debounce rapid events
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				select {
				case w.changes <- struct{}{}:
				default:
				}
			})

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
