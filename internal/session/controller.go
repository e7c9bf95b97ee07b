// Package session owns the live state of a picking session: the active
// backend, the loaded file index, and the selection sets, plus the
// single-flight scheduling of reload and merge operations.
package session

import (
	"context"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"ctxpick/internal/merge"
	"ctxpick/internal/source"
)

// Factory abstracts source construction so tests can inject fakes.
// *source.Factory satisfies it.
type Factory interface {
	Create(input string) (source.Source, error)
}

// Event is delivered on the controller's event channel when an operation
// completes. Concrete types: IndexLoaded, MergeCompleted.
type Event interface {
	isEvent()
}

// IndexLoaded reports the outcome of a reload. On error Files is nil and
// the controller's index and selections have been cleared.
type IndexLoaded struct {
	Target string
	Files  []source.SourceFile
	Err    error
}

func (IndexLoaded) isEvent() {}

// MergeCompleted reports the outcome of a merge.
type MergeCompleted struct {
	Content string
	Files   int
	Err     error
}

func (MergeCompleted) isEvent() {}

type op int

const (
	opNone op = iota
	opReload
	opMerge
)

// Controller holds the current backend, the file index snapshot, and the
// selection state. Reload and merge are requested as idempotent intents
// consumed by a single worker goroutine: at most one operation runs at a
// time, reload takes priority, and the source target is read when an
// operation starts, not when it was requested. There is no cancellation of
// an operation in flight.
type Controller struct {
	factory Factory
	filter  *source.FilterConfig
	engine  *merge.Engine
	logger  *slog.Logger

	mu            sync.Mutex
	target        string
	src           source.Source
	files         []source.SourceFile
	selectedPaths map[string]struct{}
	selectedExts  map[string]struct{}
	reloadWanted  bool
	mergeWanted   bool
	busy          bool

	wake   chan struct{}
	events chan Event
}

// NewController wires a controller; Start must be called before intents
// are acted on.
func NewController(factory Factory, filter *source.FilterConfig, engine *merge.Engine, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		factory:       factory,
		filter:        filter,
		engine:        engine,
		logger:        logger,
		selectedPaths: make(map[string]struct{}),
		selectedExts:  make(map[string]struct{}),
		wake:          make(chan struct{}, 1),
		events:        make(chan Event, 4),
	}
}

// Events returns the channel completion events are delivered on. The
// channel is closed when the worker exits.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Start launches the worker goroutine. It exits, closing the event
// channel, when ctx is canceled.
func (c *Controller) Start(ctx context.Context) {
	go c.run(ctx)
}

// SetTarget records the source string the next reload will use. Changing
// the target does not retarget a pending reload intent by itself — the
// worker reads the target at the moment the reload starts.
func (c *Controller) SetTarget(target string) {
	c.mu.Lock()
	c.target = target
	c.mu.Unlock()
}

// Target returns the current source string.
func (c *Controller) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Busy reports whether an operation is currently running.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// RequestReload sets the reload intent. Repeated requests while one is
// already pending are no-ops; a request made while an operation is running
// is queued and acted on after it finishes.
func (c *Controller) RequestReload() {
	c.mu.Lock()
	c.reloadWanted = true
	c.mu.Unlock()
	c.notify()
}

// RequestMerge sets the merge intent, with the same idempotent/queued
// semantics as RequestReload.
func (c *Controller) RequestMerge() {
	c.mu.Lock()
	c.mergeWanted = true
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.events)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		}
		for {
			next := c.takeOp()
			if next == opNone {
				break
			}
			var ev Event
			switch next {
			case opReload:
				ev = c.runReload(ctx)
			case opMerge:
				ev = c.runMerge(ctx)
			}
			c.mu.Lock()
			c.busy = false
			c.mu.Unlock()

			select {
			case c.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// takeOp claims the next pending operation under the busy gate. Reload has
// priority over merge.
func (c *Controller) takeOp() op {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.reloadWanted:
		c.reloadWanted = false
		c.busy = true
		return opReload
	case c.mergeWanted:
		c.mergeWanted = false
		c.busy = true
		return opMerge
	default:
		return opNone
	}
}

// runReload builds a backend for the target read at start time, indexes
// it, and replaces the file index wholesale. Selection state is re-seeded
// to "everything selected" on success and cleared on failure; in-progress
// manual selection is deliberately discarded, since the old index may
// belong to an entirely different source.
func (c *Controller) runReload(ctx context.Context) Event {
	c.mu.Lock()
	target := c.target
	c.mu.Unlock()

	var files []source.SourceFile
	src, err := c.factory.Create(target)
	if err == nil {
		files, err = src.Index(ctx, c.filter)
	}

	c.mu.Lock()
	if err != nil {
		c.src = nil
		c.files = nil
		c.selectedPaths = make(map[string]struct{})
		c.selectedExts = make(map[string]struct{})
	} else {
		c.src = src
		c.files = files
		c.seedSelectionLocked()
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("reload failed", "target", target, "error", err)
		return IndexLoaded{Target: target, Err: err}
	}
	c.logger.Info("index loaded", "target", target, "files", len(files))
	return IndexLoaded{Target: target, Files: files}
}

// runMerge snapshots the selected files, sorted by path for deterministic
// output, and hands them to the merge engine. The reported file count is
// what the engine actually included, not the selection size: non-text
// files skipped mid-merge do not count.
func (c *Controller) runMerge(ctx context.Context) Event {
	c.mu.Lock()
	src := c.src
	selected := make([]source.SourceFile, 0, len(c.selectedPaths))
	for _, f := range c.files {
		if _, ok := c.selectedPaths[f.Path]; ok {
			selected = append(selected, f)
		}
	}
	c.mu.Unlock()

	sort.Slice(selected, func(i, j int) bool { return selected[i].Path < selected[j].Path })

	content, merged, err := c.engine.Merge(ctx, src, selected)
	if err != nil {
		c.logger.Error("merge failed", "error", err)
		return MergeCompleted{Err: err}
	}
	c.logger.Info("merge complete", "files", merged, "bytes", len(content))
	return MergeCompleted{Content: content, Files: merged}
}

func (c *Controller) seedSelectionLocked() {
	c.selectedPaths = make(map[string]struct{}, len(c.files))
	c.selectedExts = make(map[string]struct{})
	for _, f := range c.files {
		c.selectedPaths[f.Path] = struct{}{}
		c.selectedExts[DisplayExtension(f.Path)] = struct{}{}
	}
}

// Files returns a copy of the current index snapshot.
func (c *Controller) Files() []source.SourceFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]source.SourceFile, len(c.files))
	copy(out, c.files)
	return out
}

// Extensions returns the sorted set of display extensions present in the
// index.
func (c *Controller) Extensions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]struct{})
	var exts []string
	for _, f := range c.files {
		ext := DisplayExtension(f.Path)
		if _, ok := seen[ext]; !ok {
			seen[ext] = struct{}{}
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// IsSelected reports whether a path is in the selection set.
func (c *Controller) IsSelected(p string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.selectedPaths[p]
	return ok
}

// IsExtensionSelected reports whether a display extension is selected.
func (c *Controller) IsExtensionSelected(ext string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.selectedExts[ext]
	return ok
}

// ToggleFile flips one path in or out of the selection.
func (c *Controller) ToggleFile(p string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.selectedPaths[p]; ok {
		delete(c.selectedPaths, p)
	} else {
		c.selectedPaths[p] = struct{}{}
	}
}

// ToggleExtension flips an extension and every indexed file carrying it.
func (c *Controller) ToggleExtension(ext string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, selected := c.selectedExts[ext]
	if selected {
		delete(c.selectedExts, ext)
	} else {
		c.selectedExts[ext] = struct{}{}
	}
	for _, f := range c.files {
		if DisplayExtension(f.Path) != ext {
			continue
		}
		if selected {
			delete(c.selectedPaths, f.Path)
		} else {
			c.selectedPaths[f.Path] = struct{}{}
		}
	}
}

// SelectAll re-seeds the selection to every indexed file and extension.
func (c *Controller) SelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seedSelectionLocked()
}

// ClearSelection empties both selection sets.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedPaths = make(map[string]struct{})
	c.selectedExts = make(map[string]struct{})
}

// SelectionCount returns how many files are selected and how many are
// indexed.
func (c *Controller) SelectionCount() (selected, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.selectedPaths), len(c.files)
}

// DisplayExtension groups files for the filters panel: the lowercased
// segment after the last dot of the basename, or the basename itself for
// extensionless files (so "Makefile" gets its own row).
func DisplayExtension(p string) string {
	base := path.Base(p)
	if i := strings.LastIndex(base, "."); i > 0 {
		return strings.ToLower(base[i+1:])
	}
	return base
}
