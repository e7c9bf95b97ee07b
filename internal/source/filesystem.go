package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"ctxpick/internal/ignore"
)

const ignoreFileName = ".gitignore"

// FileSystemSource enumerates a local directory tree. All paths handed out
// are posix-style and relative to the root; the ignore ruleset is loaded
// once at construction from <root>/.gitignore and never reloaded.
type FileSystemSource struct {
	fs       billy.Filesystem
	basePath string
	rules    *ignore.Ruleset
}

// NewFileSystemSource validates rootPath and builds a source over it.
// Fails with ErrPathNotFound if the path does not exist, ErrInvalidSource
// if it is not a directory, and ErrPermissionDenied if it cannot be listed.
func NewFileSystemSource(rootPath string) (*FileSystemSource, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, rootPath)
		}
		return nil, fmt.Errorf("stat %s: %w", rootPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidSource, rootPath)
	}
	if _, err := os.ReadDir(rootPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, rootPath)
	}

	abs, err := filepath.Abs(rootPath)
	if err != nil {
		abs = rootPath
	}
	return NewFileSystemSourceFrom(osfs.New(rootPath), abs), nil
}

// NewFileSystemSourceFrom builds a source over an arbitrary billy
// filesystem rooted at basePath. Used directly by tests with an in-memory
// filesystem; production goes through NewFileSystemSource.
func NewFileSystemSourceFrom(fsys billy.Filesystem, basePath string) *FileSystemSource {
	return &FileSystemSource{
		fs:       fsys,
		basePath: basePath,
		rules:    loadIgnoreRules(fsys),
	}
}

func loadIgnoreRules(fsys billy.Filesystem) *ignore.Ruleset {
	f, err := fsys.Open(ignoreFileName)
	if err != nil {
		return nil
	}
	defer f.Close()

	rules, err := ignore.Parse(f)
	if err != nil {
		return nil
	}
	return rules
}

// Index walks the tree depth-first. Entries whose name starts with "." or
// ends with "~" are skipped, as are paths matching the ignore ruleset and
// files with a classified-binary extension. Enumeration order is whatever
// the directory listing yields; callers needing determinism sort the
// result. A directory that cannot be read mid-traversal aborts the whole
// index.
func (s *FileSystemSource) Index(ctx context.Context, filter *FilterConfig) ([]SourceFile, error) {
	var files []SourceFile
	if err := s.collect(ctx, "", filter, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (s *FileSystemSource) collect(ctx context.Context, dir string, filter *FilterConfig, out *[]SourceFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, s.displayPath(dir))
		}
		return fmt.Errorf("read dir %s: %w", s.displayPath(dir), err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if skipName(name) {
			continue
		}

		rel := name
		if dir != "" {
			rel = path.Join(dir, name)
		}
		if s.rules.Match(rel) {
			continue
		}

		if entry.IsDir() {
			if err := s.collect(ctx, rel, filter, out); err != nil {
				return err
			}
			continue
		}
		if !filter.IsTextExtension(Ext(rel)) {
			continue
		}
		*out = append(*out, SourceFile{
			Path:   rel,
			Origin: FileSystemOrigin{BasePath: s.basePath},
		})
	}
	return nil
}

// Content reads the file bytes and decodes them as UTF-8. Binary files
// that slipped past extension filtering (unknown extensions) are caught
// here and reported as ErrNotTextFile.
func (s *FileSystemSource) Content(ctx context.Context, file SourceFile) (string, error) {
	if _, ok := file.Origin.(FileSystemOrigin); !ok {
		return "", fmt.Errorf("%w: file %s does not belong to a filesystem source", ErrInvalidSource, file.Path)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := s.fs.Open(file.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrPathNotFound, s.displayPath(file.Path))
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("%w: %s", ErrPermissionDenied, s.displayPath(file.Path))
		}
		return "", fmt.Errorf("open %s: %w", s.displayPath(file.Path), err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.displayPath(file.Path), err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s", ErrNotTextFile, file.Path)
	}
	return string(raw), nil
}

func (s *FileSystemSource) displayPath(rel string) string {
	if rel == "" {
		return s.basePath
	}
	return filepath.Join(s.basePath, filepath.FromSlash(rel))
}

// skipName filters hidden entries and editor backup files by name.
func skipName(name string) bool {
	return len(name) > 0 && (name[0] == '.' || name[len(name)-1] == '~')
}
