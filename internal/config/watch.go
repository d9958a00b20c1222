package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of events editors emit for a single save.
const reloadDebounce = 150 * time.Millisecond

// meaningfulOps are the operations that can change the config file contents.
const meaningfulOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Watcher calls back when the config file changes on disk.
type Watcher struct {
	fsw      *fsnotify.Watcher
	target   string
	callback func()
	debounce time.Duration
}

// NewWatcher watches the directory holding path so atomic-rename saves are seen too.
func NewWatcher(path string, callback func()) (*Watcher, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}
	if callback == nil {
		callback = func() {}
	}
	return &Watcher{
		fsw:      fsw,
		target:   filepath.Clean(target),
		callback: callback,
		debounce: reloadDebounce,
	}, nil
}

// Run delivers debounced callbacks until ctx is done or the watcher is closed. errFn, when
// set, receives watcher errors.
func (w *Watcher) Run(ctx context.Context, errFn func(error)) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&meaningfulOps == 0 || filepath.Clean(ev.Name) != w.target {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.callback)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errFn != nil {
				errFn(err)
			}
		}
	}
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
