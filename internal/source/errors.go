package source

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conditions callers branch on. Lower-level disk and
// transport failures are wrapped with %w and surface as-is.
var (
	// ErrInvalidSource is returned for a malformed URL/path, or when content
	// is requested against a backend of a different kind.
	ErrInvalidSource = errors.New("invalid source path or URL")

	// ErrPathNotFound is returned when a root or file does not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrPermissionDenied is returned when a directory or file cannot be read.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotTextFile is returned when file bytes are not valid UTF-8.
	ErrNotTextFile = errors.New("file is not valid UTF-8 text")

	// ErrRateLimited is returned on HTTP 403 from the GitHub API.
	ErrRateLimited = errors.New("github rate limit exceeded")

	// ErrRepoNotFound is returned on HTTP 404 from the tree listing.
	ErrRepoNotFound = errors.New("github repository not found")
)

// APIError is a non-2xx GitHub response that is neither a rate limit nor a
// not-found, carrying the response body for diagnosis.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api error (status %d): %s", e.Status, e.Body)
}
