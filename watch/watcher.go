// Package watch re-runs gates when project artifacts change on disk.
// Events are debounced so a burst of editor saves triggers one gate run.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/novelaire/novelaire/observe"
)

const eventChannelBuffer = 500

// watchedExtensions limits events to authoring artifacts.
var watchedExtensions = map[string]bool{
	".md":  true,
	".txt": true,
}

// excludedDirs are never watched.
var excludedDirs = map[string]bool{
	".git":         true,
	".novelaire":   true,
	"node_modules": true,
}

// Operation indicates the type of file operation.
type Operation string

// Operation values.
const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Event represents an artifact file change.
type Event struct {
	// Path is the file path relative to the project root.
	Path string

	// Operation is the type of change.
	Operation Operation

	// AbsPath is the absolute file path.
	AbsPath string
}

// Watcher watches the project tree for artifact changes and emits
// debounced events.
type Watcher struct {
	projectRoot string
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	logger      *slog.Logger

	// Debouncing: collect changes before emitting
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	events chan Event
}

// NewWatcher creates a watcher over the given project root.
func NewWatcher(projectRoot string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		projectRoot: projectRoot,
		debounce:    debounce,
		watcher:     fsw,
		logger:      logger,
		pending:     make(map[string]fsnotify.Op),
		events:      make(chan Event, eventChannelBuffer),
	}, nil
}

// Events returns the channel of watch events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching the project tree for changes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.projectRoot); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Artifact watcher started",
		slog.String("root", w.projectRoot),
		slog.Duration("debounce", w.debounce))

	return nil
}

// Stop stops the watcher. The events channel is closed by processEvents
// when it exits.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// addWatchesRecursive adds watches to all directories.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if excludedDirs[base] || (strings.HasPrefix(base, ".") && path != root) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
		} else {
			w.logger.Debug("Watching directory", slog.String("path", path))
		}

		return nil
	})
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent processes a single fsnotify event.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	ext := strings.ToLower(filepath.Ext(path))
	if !watchedExtensions[ext] {
		// Directory creation still needs a new watch.
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	relPath, _ := filepath.Rel(w.projectRoot, path)
	for dir := range excludedDirs {
		if strings.Contains(relPath, dir+string(filepath.Separator)) {
			return
		}
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Artifact change detected",
		slog.String("path", relPath),
		slog.String("op", event.Op.String()))
}

// handleNewDirectory adds a watch to a newly created directory.
func (w *Watcher) handleNewDirectory(path string) {
	base := filepath.Base(path)
	if excludedDirs[base] || strings.HasPrefix(base, ".") {
		return
	}

	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			slog.String("path", path),
			slog.String("error", err.Error()))
	} else {
		w.logger.Debug("Added watch for new directory", slog.String("path", path))
	}
}

// flushPending emits accumulated changes as debounced events.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := make(map[string]fsnotify.Op, len(w.pending))
	for k, v := range w.pending {
		toProcess[k] = v
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		relPath, _ := filepath.Rel(w.projectRoot, path)
		event := Event{
			Path:      filepath.ToSlash(relPath),
			Operation: classifyOp(op),
			AbsPath:   path,
		}

		observe.WatchEvents.WithLabelValues(string(event.Operation)).Inc()

		select {
		case w.events <- event:
		default:
			w.logger.Warn("Event channel full, dropping event",
				slog.String("path", event.Path))
		}
	}
}

func classifyOp(op fsnotify.Op) Operation {
	switch {
	case op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename):
		return OpDelete
	case op.Has(fsnotify.Create):
		return OpCreate
	default:
		return OpModify
	}
}
