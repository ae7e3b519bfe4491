package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the file must stay quiet before a change is reported.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors a single file and reports changes after a quiet period.
// The parent directory is watched so editors that replace the file on save
// are still seen.
type Watcher struct {
	watcher       *fsnotify.Watcher
	filePath      string
	debounce      time.Duration
	debounceTimer *time.Timer
	debounceMutex sync.Mutex
	lastEvent     FileEventType
	running       bool
	stopChan      chan struct{}
	onChange      func(FileEvent)
}

// NewWatcher creates a watcher for filePath. onChange runs on its own
// goroutine once per settled burst of events.
func NewWatcher(filePath string, debounce time.Duration, onChange func(FileEvent)) (*Watcher, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", filePath, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		watcher:  watcher,
		filePath: abs,
		debounce: debounce,
		onChange: onChange,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching the file for changes
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.filePath)
	slog.Info("Starting file watcher", "path", w.filePath)

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.running = true
	go w.watchLoop(ctx)
	return nil
}

// Stop stops the file watcher
func (w *Watcher) Stop() {
	if !w.running {
		return
	}

	slog.Info("Stopping file watcher", "path", w.filePath)
	w.running = false
	close(w.stopChan)

	// Cancel any pending debounce timer
	w.debounceMutex.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMutex.Unlock()

	w.watcher.Close()
}

// watchLoop processes file system events
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)

		case <-w.stopChan:
			return

		case <-ctx.Done():
			return
		}
	}
}

// handleEvent debounces events that touch the watched file.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.filePath {
		return
	}
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
		return
	}

	slog.Debug("Detected file change", "file", event.Name, "op", event.Op.String())

	w.debounceMutex.Lock()
	defer w.debounceMutex.Unlock()

	w.lastEvent = eventType(event.Op)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, w.emitDebounceEvent)
}

// emitDebounceEvent reports the change after the debounce period
func (w *Watcher) emitDebounceEvent() {
	w.debounceMutex.Lock()
	event := FileEvent{
		Path:      w.filePath,
		EventType: w.lastEvent,
		Timestamp: time.Now(),
	}
	w.debounceMutex.Unlock()

	slog.Info("File changed", "path", event.Path, "type", event.EventType)
	if w.onChange != nil {
		w.onChange(event)
	}
}
