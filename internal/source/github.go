package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

const (
	defaultAPIBaseURL = "https://api.github.com"
	defaultRawBaseURL = "https://raw.githubusercontent.com"
)

// GitHubSource enumerates a public GitHub repository through the anonymous
// tree-listing API and fetches file bytes from the raw-content host. No
// ignore file is fetched remotely; only the extension classifier applies.
// Fetches are sequential, one HTTP round-trip per file.
type GitHubSource struct {
	owner   string
	repo    string
	branch  string
	subpath string // "" when the whole repo is indexed

	client  *http.Client
	apiBase string
	rawBase string
}

// NewGitHubSource builds a source for (owner, repo, branch), optionally
// limited to subpath.
func NewGitHubSource(client *http.Client, owner, repo, branch, subpath string) *GitHubSource {
	return &GitHubSource{
		owner:   owner,
		repo:    repo,
		branch:  branch,
		subpath: subpath,
		client:  client,
		apiBase: defaultAPIBaseURL,
		rawBase: defaultRawBaseURL,
	}
}

// ParseGitHubURL accepts https://github.com/<owner>/<repo> optionally
// followed by /tree/<branch>/<subpath...>. The branch defaults to "main"
// and a trailing .git is stripped from the repo segment. Anything else —
// other scheme, other host, fewer than two path segments — fails with
// ErrInvalidSource.
func ParseGitHubURL(raw string) (owner, repo, branch, subpath string, err error) {
	u, perr := url.Parse(raw)
	if perr != nil {
		return "", "", "", "", fmt.Errorf("%w: %s", ErrInvalidSource, raw)
	}
	if u.Scheme != "https" || u.Host != "github.com" {
		return "", "", "", "", fmt.Errorf("%w: %s", ErrInvalidSource, raw)
	}

	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return "", "", "", "", fmt.Errorf("%w: %s", ErrInvalidSource, raw)
	}

	owner = segments[0]
	repo = strings.TrimSuffix(segments[1], ".git")
	branch = "main"

	rest := segments[2:]
	if len(rest) >= 2 && rest[0] == "tree" {
		branch = rest[1]
		if len(rest) > 2 {
			subpath = path.Join(rest[2:]...)
		}
	}
	return owner, repo, branch, subpath, nil
}

// Index lists the repository tree with recursive expansion and keeps only
// blob entries that survive the subpath filter and the extension
// classifier. Kept paths are rewritten to be relative to the subpath.
func (s *GitHubSource) Index(ctx context.Context, filter *FilterConfig) ([]SourceFile, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1",
		s.apiBase, s.owner, s.repo, url.PathEscape(s.branch))

	body, err := s.get(ctx, endpoint, treeStatus)
	if err != nil {
		return nil, err
	}

	tree := gjson.GetBytes(body, "tree")
	if !tree.IsArray() {
		return nil, &APIError{Status: http.StatusOK, Body: "response has no tree array"}
	}

	var files []SourceFile
	for _, entry := range tree.Array() {
		if entry.Get("type").String() != "blob" {
			continue
		}
		rel, ok := s.relativize(entry.Get("path").String())
		if !ok {
			continue
		}
		if !includePath(rel, filter) {
			continue
		}
		files = append(files, SourceFile{
			Path:   rel,
			Origin: GitHubOrigin{Owner: s.owner, Repo: s.repo, Branch: s.branch},
		})
	}
	return files, nil
}

// relativize applies the subpath filter and strips the subpath prefix.
func (s *GitHubSource) relativize(p string) (string, bool) {
	if s.subpath == "" {
		return p, p != ""
	}
	rel, ok := strings.CutPrefix(p, s.subpath+"/")
	if !ok {
		return "", false
	}
	return rel, rel != ""
}

// Content fetches raw file bytes for a file from a previous Index call.
// Files whose origin is not a GitHub origin are rejected: they belong to a
// stale index produced by a different backend kind.
func (s *GitHubSource) Content(ctx context.Context, file SourceFile) (string, error) {
	if _, ok := file.Origin.(GitHubOrigin); !ok {
		return "", fmt.Errorf("%w: file %s does not belong to a github source", ErrInvalidSource, file.Path)
	}

	repoPath := file.Path
	if s.subpath != "" {
		repoPath = s.subpath + "/" + file.Path
	}
	endpoint := fmt.Sprintf("%s/%s/%s/%s/%s",
		s.rawBase, url.PathEscape(s.owner), url.PathEscape(s.repo),
		url.PathEscape(s.branch), escapeSegments(repoPath))

	raw, err := s.get(ctx, endpoint, contentStatus(file.Path))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s", ErrNotTextFile, repoPath)
	}
	return string(raw), nil
}

// escapeSegments percent-escapes each segment of a posix path while
// keeping the separators, so characters like # or ? in a file name cannot
// be misread as a URL fragment or query.
func escapeSegments(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// statusFunc maps a non-2xx response to an error; treeStatus and
// contentStatus differ only in how 404 is reported.
type statusFunc func(status int, body []byte) error

func treeStatus(status int, body []byte) error {
	switch status {
	case http.StatusForbidden:
		return ErrRateLimited
	case http.StatusNotFound:
		return ErrRepoNotFound
	default:
		return &APIError{Status: status, Body: strings.TrimSpace(string(body))}
	}
}

func contentStatus(p string) statusFunc {
	return func(status int, body []byte) error {
		switch status {
		case http.StatusForbidden:
			return ErrRateLimited
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrPathNotFound, p)
		default:
			return &APIError{Status: status, Body: strings.TrimSpace(string(body))}
		}
	}
}

func (s *GitHubSource) get(ctx context.Context, endpoint string, onError statusFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read github response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, onError(resp.StatusCode, body)
	}
	return body, nil
}
