// Package ignore implements a deliberately simplified subset of
// .gitignore-style rules: blank lines and # comments are skipped, a
// trailing / matches the directory and everything under it, a leading /
// anchors to the root, and a single * splits a pattern into a
// prefix/suffix substring match. There is no negation (!), no **, and no
// character classes. Known limitation, kept on purpose: the matcher's
// behavior is pinned by its tests, not by full gitignore compliance.
package ignore

import (
	"bufio"
	"io"
	"strings"
)

// Ruleset is an ordered sequence of raw patterns, loaded once per
// filesystem-source construction and immutable afterwards.
type Ruleset struct {
	patterns []string
}

// Parse reads patterns from r, one per line. Blank lines and lines
// starting with # are skipped; every other line is a raw pattern.
func Parse(r io.Reader) (*Ruleset, error) {
	rs := &Ruleset{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rs.patterns = append(rs.patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(s string) *Ruleset {
	rs, _ := Parse(strings.NewReader(s))
	return rs
}

// Len returns the number of loaded patterns.
func (rs *Ruleset) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.patterns)
}

// Match reports whether the posix-separated relative path matches any
// pattern in the ruleset. A nil ruleset matches nothing.
func (rs *Ruleset) Match(relPath string) bool {
	if rs == nil {
		return false
	}
	for _, p := range rs.patterns {
		if matchPattern(p, relPath) {
			return true
		}
	}
	return false
}

func matchPattern(pat, rel string) bool {
	// Directory-style patterns match the directory and its contents.
	trimmed := strings.TrimSuffix(pat, "/")

	switch {
	case strings.HasPrefix(pat, "/"):
		// Anchored to the root.
		anchored := strings.TrimPrefix(trimmed, "/")
		if rel == anchored || strings.HasPrefix(rel, anchored+"/") {
			return true
		}
		if strings.HasPrefix(anchored, "*") {
			return strings.HasSuffix(rel, strings.TrimPrefix(anchored, "*"))
		}
		return false

	case strings.Contains(pat, "*"):
		// Single-wildcard substring match, not full glob recursion.
		prefix, suffix, _ := strings.Cut(pat, "*")
		return strings.HasPrefix(rel, prefix) && strings.HasSuffix(rel, suffix)

	default:
		// Literal, unanchored: the named file or directory at any depth,
		// and anything under it.
		return rel == trimmed ||
			strings.HasPrefix(rel, trimmed+"/") ||
			strings.HasSuffix(rel, "/"+trimmed) ||
			strings.Contains(rel, "/"+trimmed+"/")
	}
}
