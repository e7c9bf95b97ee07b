// Package merge concatenates selected files into one delimited text blob.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ctxpick/internal/metrics"
	"ctxpick/internal/source"
)

// Engine fetches content for each selected file through the backend and
// wraps it in START/END delimiters. The engine only builds the in-memory
// string; writing it to a file or the clipboard is the caller's business.
type Engine struct {
	Logger  *slog.Logger
	Metrics *metrics.MergeMetrics // optional
}

// NewEngine creates an Engine. A nil logger falls back to slog.Default.
func NewEngine(logger *slog.Logger, m *metrics.MergeMetrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Logger: logger, Metrics: m}
}

// Merge fetches each file in the order given — callers wanting
// deterministic output pass a sorted slice — and concatenates the results.
// A file failing with ErrNotTextFile is logged and skipped; any other
// fetch error aborts the whole merge. No partial output is returned on
// error. The returned count is the number of files actually included,
// excluding skipped ones.
func (e *Engine) Merge(ctx context.Context, src source.Source, files []source.SourceFile) (string, int, error) {
	if src == nil {
		return "", 0, fmt.Errorf("%w: no source loaded", source.ErrInvalidSource)
	}

	if e.Metrics != nil {
		e.Metrics.Reset()
	}

	var sb strings.Builder
	merged := 0
	for _, f := range files {
		content, err := src.Content(ctx, f)
		if err != nil {
			if errors.Is(err, source.ErrNotTextFile) {
				e.Logger.Warn("skipping non-text file", "path", f.Path)
				continue
			}
			return "", 0, fmt.Errorf("fetch %s: %w", f.Path, err)
		}

		fmt.Fprintf(&sb, "--- START FILE: %s ---\n", f.Path)
		sb.WriteString(content)
		fmt.Fprintf(&sb, "\n--- END FILE: %s ---\n\n", f.Path)

		merged++
		if e.Metrics != nil {
			e.Metrics.AddFile(f.Path, content)
		}
	}
	return sb.String(), merged, nil
}
