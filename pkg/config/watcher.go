package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the event burst editors produce on save.
const debounceWindow = 200 * time.Millisecond

// Watcher reloads the configuration file when it changes on disk and hands
// each successfully validated result to the callback. Invalid intermediate
// states are logged and skipped, keeping the last good configuration live.
type Watcher struct {
	path     string
	onChange func(*Config)
	logger   *slog.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher starts watching path. The callback runs on the watcher
// goroutine; it must not block.
func NewWatcher(path string, onChange func(*Config), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	// Watch the directory, not the file: editors and config managers
	// replace the file, which drops a direct file watch.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %q: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		path:     path,
		onChange: onChange,
		logger:   logger,
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	var debounce *time.Timer
	target := filepath.Clean(w.path)

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, w.reload)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("configuration watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadWithEnvOverrides(w.path)
	if err != nil {
		w.logger.Error("configuration reload rejected, keeping previous",
			"path", w.path,
			"error", err,
		)
		return
	}
	w.logger.Info("configuration reloaded", "path", w.path)
	w.onChange(cfg)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
