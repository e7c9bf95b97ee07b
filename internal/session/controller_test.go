package session

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctxpick/internal/merge"
	"ctxpick/internal/source"
)

// fakeSource is an in-memory backend whose Index can be gated to hold the
// worker mid-operation.
type fakeSource struct {
	files   []source.SourceFile
	content map[string]string
	notText map[string]bool
	gate    chan struct{} // when non-nil, Index blocks until the gate closes
	indexed *atomic.Int32
}

func (f *fakeSource) Index(ctx context.Context, filter *source.FilterConfig) ([]source.SourceFile, error) {
	if f.indexed != nil {
		f.indexed.Add(1)
	}
	if f.gate != nil {
		<-f.gate
	}
	return f.files, nil
}

func (f *fakeSource) Content(ctx context.Context, file source.SourceFile) (string, error) {
	if f.notText[file.Path] {
		return "", fmt.Errorf("%w: %s", source.ErrNotTextFile, file.Path)
	}
	c, ok := f.content[file.Path]
	if !ok {
		return "", fmt.Errorf("%w: %s", source.ErrPathNotFound, file.Path)
	}
	return c, nil
}

type fakeFactory struct {
	sources map[string]*fakeSource
	created *atomic.Int32
}

func (f *fakeFactory) Create(input string) (source.Source, error) {
	if f.created != nil {
		f.created.Add(1)
	}
	src, ok := f.sources[input]
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrInvalidSource, input)
	}
	return src, nil
}

func fakeFiles(paths ...string) []source.SourceFile {
	files := make([]source.SourceFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, source.SourceFile{Path: p, Origin: source.FileSystemOrigin{BasePath: "/fake"}})
	}
	return files
}

func newTestController(factory Factory) *Controller {
	return NewController(factory, source.NewFilterConfig(), merge.NewEngine(nil, nil), nil)
}

func waitEvent(t *testing.T, c *Controller) Event {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for controller event")
		return nil
	}
}

func TestReloadReplacesIndexAndSeedsSelection(t *testing.T) {
	factory := &fakeFactory{sources: map[string]*fakeSource{
		"/p": {files: fakeFiles("a.go", "b.md", "Makefile")},
	}}
	c := newTestController(factory)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	c.SetTarget("/p")
	c.RequestReload()

	ev := waitEvent(t, c)
	loaded, ok := ev.(IndexLoaded)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	assert.Equal(t, "/p", loaded.Target)
	assert.Len(t, loaded.Files, 3)

	selected, total := c.SelectionCount()
	assert.Equal(t, 3, selected)
	assert.Equal(t, 3, total)
	assert.True(t, c.IsSelected("a.go"))
	assert.True(t, c.IsExtensionSelected("go"))
	// Extensionless files group by basename.
	assert.True(t, c.IsExtensionSelected("Makefile"))
	assert.Equal(t, []string{"Makefile", "go", "md"}, c.Extensions())
}

func TestReloadFailureClearsIndex(t *testing.T) {
	factory := &fakeFactory{sources: map[string]*fakeSource{
		"/p": {files: fakeFiles("a.go")},
	}}
	c := newTestController(factory)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	c.SetTarget("/p")
	c.RequestReload()
	waitEvent(t, c)

	c.SetTarget("/missing")
	c.RequestReload()
	ev := waitEvent(t, c)
	loaded := ev.(IndexLoaded)
	assert.ErrorIs(t, loaded.Err, source.ErrInvalidSource)

	selected, total := c.SelectionCount()
	assert.Zero(t, selected)
	assert.Zero(t, total)
	assert.Empty(t, c.Files())
}

func TestReloadResetsManualSelection(t *testing.T) {
	factory := &fakeFactory{sources: map[string]*fakeSource{
		"/p": {files: fakeFiles("a.go", "b.go")},
	}}
	c := newTestController(factory)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	c.SetTarget("/p")
	c.RequestReload()
	waitEvent(t, c)

	c.ToggleFile("a.go")
	selected, _ := c.SelectionCount()
	require.Equal(t, 1, selected)

	// Even a strict-subset selection is discarded on reload.
	c.RequestReload()
	waitEvent(t, c)
	selected, _ = c.SelectionCount()
	assert.Equal(t, 2, selected)
}

func TestSingleFlightReload(t *testing.T) {
	var indexed atomic.Int32
	factory := &fakeFactory{sources: map[string]*fakeSource{
		"/p": {files: fakeFiles("a.go"), indexed: &indexed},
	}}
	c := newTestController(factory)
	c.SetTarget("/p")

	// Both requests land before the worker starts: the intent coalesces
	// and exactly one reload executes.
	c.RequestReload()
	c.RequestReload()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	waitEvent(t, c)
	assert.Equal(t, int32(1), indexed.Load())
	assert.False(t, c.Busy())

	select {
	case ev := <-c.Events():
		t.Fatalf("unexpected second event: %#v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestIntentQueuedWhileBusy(t *testing.T) {
	gate := make(chan struct{})
	var indexed atomic.Int32
	factory := &fakeFactory{sources: map[string]*fakeSource{
		"/p": {files: fakeFiles("a.go"), gate: gate, indexed: &indexed},
	}}
	c := newTestController(factory)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	c.SetTarget("/p")
	c.RequestReload()

	// Wait for the first reload to be mid-flight, then queue another.
	require.Eventually(t, func() bool { return indexed.Load() == 1 }, time.Second, time.Millisecond)
	assert.True(t, c.Busy())
	c.RequestReload()

	close(gate)
	waitEvent(t, c)
	waitEvent(t, c)
	assert.Equal(t, int32(2), indexed.Load())
}

func TestReloadReadsTargetAtStart(t *testing.T) {
	var indexedOld, indexedNew atomic.Int32
	factory := &fakeFactory{sources: map[string]*fakeSource{
		"/old": {files: fakeFiles("old.go"), indexed: &indexedOld},
		"/new": {files: fakeFiles("new.go"), indexed: &indexedNew},
	}}
	c := newTestController(factory)

	// Intent is set against /old, but the worker has not started yet;
	// retargeting before the reload fires changes what gets loaded.
	c.SetTarget("/old")
	c.RequestReload()
	c.SetTarget("/new")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	ev := waitEvent(t, c).(IndexLoaded)
	require.NoError(t, ev.Err)
	assert.Equal(t, "/new", ev.Target)
	assert.Zero(t, indexedOld.Load())
	assert.Equal(t, int32(1), indexedNew.Load())
}

func TestMergeUsesSortedSelection(t *testing.T) {
	factory := &fakeFactory{sources: map[string]*fakeSource{
		"/p": {
			files:   fakeFiles("b.txt", "a.txt"),
			content: map[string]string{"a.txt": "A", "b.txt": "B"},
		},
	}}
	c := newTestController(factory)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	c.SetTarget("/p")
	c.RequestReload()
	waitEvent(t, c)

	c.RequestMerge()
	ev := waitEvent(t, c).(MergeCompleted)
	require.NoError(t, ev.Err)
	assert.Equal(t, 2, ev.Files)

	// Output ordering follows sorted paths, not index order.
	expected := "--- START FILE: a.txt ---\nA\n--- END FILE: a.txt ---\n\n" +
		"--- START FILE: b.txt ---\nB\n--- END FILE: b.txt ---\n\n"
	assert.Equal(t, expected, ev.Content)
}

func TestMergeCountExcludesSkippedFiles(t *testing.T) {
	factory := &fakeFactory{sources: map[string]*fakeSource{
		"/p": {
			files:   fakeFiles("a.txt", "b.data"),
			content: map[string]string{"a.txt": "A"},
			notText: map[string]bool{"b.data": true},
		},
	}}
	c := newTestController(factory)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	c.SetTarget("/p")
	c.RequestReload()
	waitEvent(t, c)

	c.RequestMerge()
	ev := waitEvent(t, c).(MergeCompleted)
	require.NoError(t, ev.Err)

	// Both files are selected but only one survives the merge; the
	// reported count reflects what the output contains.
	assert.Equal(t, 1, ev.Files)
	assert.NotContains(t, ev.Content, "b.data")
}

func TestMergeWithoutSourceFails(t *testing.T) {
	factory := &fakeFactory{sources: map[string]*fakeSource{}}
	c := newTestController(factory)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	c.RequestMerge()
	ev := waitEvent(t, c).(MergeCompleted)
	assert.ErrorIs(t, ev.Err, source.ErrInvalidSource)
}

func TestToggleExtension(t *testing.T) {
	factory := &fakeFactory{sources: map[string]*fakeSource{
		"/p": {files: fakeFiles("a.go", "b.go", "c.md")},
	}}
	c := newTestController(factory)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	c.SetTarget("/p")
	c.RequestReload()
	waitEvent(t, c)

	c.ToggleExtension("go")
	assert.False(t, c.IsSelected("a.go"))
	assert.False(t, c.IsSelected("b.go"))
	assert.True(t, c.IsSelected("c.md"))

	c.ToggleExtension("go")
	selected, _ := c.SelectionCount()
	assert.Equal(t, 3, selected)
}

func TestDisplayExtension(t *testing.T) {
	assert.Equal(t, "go", DisplayExtension("cmd/main.go"))
	assert.Equal(t, "md", DisplayExtension("README.MD"))
	assert.Equal(t, "Makefile", DisplayExtension("build/Makefile"))
	assert.Equal(t, "txt", DisplayExtension("a.b.txt"))
}

func TestExtensionsSorted(t *testing.T) {
	factory := &fakeFactory{sources: map[string]*fakeSource{
		"/p": {files: fakeFiles("z.md", "a.go", "m.md")},
	}}
	c := newTestController(factory)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	c.SetTarget("/p")
	c.RequestReload()
	waitEvent(t, c)

	exts := c.Extensions()
	assert.True(t, sort.StringsAreSorted(exts))
	assert.Equal(t, []string{"go", "md"}, exts)
}
