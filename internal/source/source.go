// Package source provides the data-source contract behind ctxpick: a file
// index plus per-file content, implemented by a local filesystem backend and
// a read-only GitHub backend. The factory in this package is the single
// place that decides which backend a user-supplied string maps to.
package source

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"
)

const userAgent = "ctxpick"

// SourceFile is one entry of an index snapshot. Path is a posix-style
// relative path (no leading slash, no ".." segments) under the backend
// root/subpath. Origin ties the file to the backend that produced it.
// Immutable once constructed; equality is by (Path, Origin).
type SourceFile struct {
	Path   string
	Origin Origin
}

// Origin identifies the backend a SourceFile came from. The two variants
// are FileSystemOrigin and GitHubOrigin; Content implementations reject
// files whose origin variant does not match the backend, so entries from a
// stale index cannot be fetched against a swapped-in backend of a
// different kind.
type Origin interface {
	isOrigin()
}

// FileSystemOrigin marks a file enumerated from a local directory tree.
type FileSystemOrigin struct {
	BasePath string
}

func (FileSystemOrigin) isOrigin() {}

// GitHubOrigin marks a file enumerated from a GitHub repository tree.
type GitHubOrigin struct {
	Owner  string
	Repo   string
	Branch string
}

func (GitHubOrigin) isOrigin() {}

// Source is the backend contract: enumerate files, then fetch them one at a
// time. Index returns a point-in-time snapshot that is superseded wholesale
// by the next call, never patched in place.
type Source interface {
	Index(ctx context.Context, filter *FilterConfig) ([]SourceFile, error)
	Content(ctx context.Context, file SourceFile) (string, error)
}

// Factory builds a backend from a user-supplied source string. Strings
// starting with https://github.com are parsed as GitHub URLs; everything
// else is treated as a local path. No other component inspects the shape of
// the input string.
type Factory struct {
	client *http.Client
}

// NewFactory creates a Factory sharing the given HTTP client across GitHub
// backends. A nil client gets a default with a 30s request timeout.
func NewFactory(client *http.Client) *Factory {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Factory{client: client}
}

// Create dispatches the input string to the appropriate backend.
func (f *Factory) Create(input string) (Source, error) {
	if strings.HasPrefix(input, "https://github.com") {
		owner, repo, branch, subpath, err := ParseGitHubURL(input)
		if err != nil {
			return nil, err
		}
		return NewGitHubSource(f.client, owner, repo, branch, subpath), nil
	}
	return NewFileSystemSource(input)
}

// Ext returns the lowercased extension of a posix path without the leading
// dot, or "" when the basename has none.
func Ext(p string) string {
	ext := path.Ext(path.Base(p))
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

var _ Source = (*FileSystemSource)(nil)
var _ Source = (*GitHubSource)(nil)
