// Package watch reports changes to named diagram artifacts.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"autoctl/internal/artifact"
	"autoctl/internal/logging"
)

// DefaultDebounce is used when New is given a non-positive debounce.
const DefaultDebounce = 250 * time.Millisecond

// Event reports that a file of the artifact Name changed and then stayed
// quiet for the debounce window. Path is the last file that changed.
type Event struct {
	Name string
	Path string
}

// Handler receives settled events on the watcher goroutine.
type Handler func(ctx context.Context, ev Event)

// Stats counts watcher activity.
type Stats struct {
	Seen      int
	Delivered int
	Errors    int
	LastPath  string
	LastEvent time.Time
}

type pendingEvent struct {
	path string
	at   time.Time
}

// Watcher watches the diagram, solution and diagnostics files of a set of
// artifact names. Backups and temporaries are ignored.
type Watcher struct {
	mu       sync.Mutex
	dir      string
	targets  map[string]string // absolute file path -> artifact name
	debounce time.Duration
	handler  Handler
	pending  map[string]pendingEvent
	stats    Stats
}

// New returns a watcher over names resolved through namer.
func New(namer *artifact.Namer, names []string, debounce time.Duration, handler Handler) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: nil handler")
	}
	if len(names) == 0 {
		return nil, errors.New("watch: no names to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	dir, err := filepath.Abs(namer.Path("."))
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		dir:      dir,
		targets:  make(map[string]string),
		debounce: debounce,
		handler:  handler,
		pending:  make(map[string]pendingEvent),
	}
	for _, name := range names {
		for _, kind := range []artifact.Kind{artifact.KindDiagram, artifact.KindSolution, artifact.KindDiagnostics} {
			p, err := filepath.Abs(namer.Path(namer.Name(kind, name)))
			if err != nil {
				return nil, err
			}
			w.targets[p] = name
		}
	}
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Run watches until ctx is done. Events still inside their debounce window
// when ctx ends are dropped.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	logging.Watch("Watching %d files in %s", len(w.targets), w.dir)

	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.WatchDebug("Watcher stopped: %v", ctx.Err())
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.Get(logging.CategoryWatch).Error("Watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	path, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}
	name, ok := w.targets[path]
	if !ok {
		return
	}
	logging.WatchDebug("%s: %s", ev.Op, path)

	now := time.Now()
	w.mu.Lock()
	w.stats.Seen++
	w.stats.LastPath = path
	w.stats.LastEvent = now
	w.pending[name] = pendingEvent{path: path, at: now}
	w.mu.Unlock()
}

// flush delivers events that have settled past the debounce window.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	var ready []Event
	w.mu.Lock()
	for name, p := range w.pending {
		if now.Sub(p.at) >= w.debounce {
			ready = append(ready, Event{Name: name, Path: p.path})
			delete(w.pending, name)
		}
	}
	w.stats.Delivered += len(ready)
	w.mu.Unlock()

	for _, ev := range ready {
		w.handler(ctx, ev)
	}
}
