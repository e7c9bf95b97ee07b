package metrics

import "sync"

// Item holds the counts for one merged file.
type Item struct {
	Path   string `json:"path"`
	Bytes  int    `json:"bytes"`
	Tokens int    `json:"tokens"`
	Lines  int    `json:"lines"`
}

// MergeMetrics accumulates per-file counts during a merge run plus a
// running total. Safe for concurrent use; in practice the merge worker is
// the only writer while the UI reads totals for display.
type MergeMetrics struct {
	mu    sync.Mutex
	ctr   Counter
	items []Item
	total Item
}

// NewMergeMetrics creates a MergeMetrics backed by the given counter.
func NewMergeMetrics(ctr Counter) *MergeMetrics {
	return &MergeMetrics{ctr: ctr}
}

// AddFile counts content and records it under path.
func (m *MergeMetrics) AddFile(path, content string) {
	b, t, l := m.ctr.Count(content)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, Item{Path: path, Bytes: b, Tokens: t, Lines: l})
	m.total.Bytes += b
	m.total.Tokens += t
	m.total.Lines += l
}

// Items returns a copy of the per-file records in merge order.
func (m *MergeMetrics) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out
}

// Total returns the accumulated counts across all files.
func (m *MergeMetrics) Total() Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Reset clears all recorded items, keeping the counter.
func (m *MergeMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	m.total = Item{}
}
