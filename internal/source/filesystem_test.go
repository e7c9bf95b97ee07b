package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) *FileSystemSource {
	t.Helper()
	fsys := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fsys, name, []byte(content), 0o644))
	}
	return NewFileSystemSourceFrom(fsys, "/project")
}

func indexPaths(t *testing.T, src *FileSystemSource) []string {
	t.Helper()
	files, err := src.Index(context.Background(), NewFilterConfig())
	require.NoError(t, err)
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	return paths
}

func TestFileSystemIndex(t *testing.T) {
	src := writeFiles(t, map[string]string{
		"main.go":          "package main",
		"docs/readme.md":   "# readme",
		"assets/logo.png":  "\x89PNG",
		".env":             "SECRET=1",
		"notes.txt~":       "backup",
		".git/config":      "[core]",
		"sub/.hidden/x.go": "package x",
	})

	paths := indexPaths(t, src)
	assert.Equal(t, []string{"docs/readme.md", "main.go"}, paths)
}

func TestFileSystemIndexRespectsIgnoreRules(t *testing.T) {
	src := writeFiles(t, map[string]string{
		".gitignore":             "/build\n*.log\nvendor\n",
		"main.go":                "package main",
		"build/out.txt":          "artifact",
		"logs/run.log":           "line",
		"vendor/dep/dep.go":      "package dep",
		"src/vendor/dep/x.go":    "package dep",
		"src/process.go":         "package src",
		"buildinfo/version.txt":  "1.0",
	})

	paths := indexPaths(t, src)
	assert.Equal(t, []string{"buildinfo/version.txt", "main.go", "src/process.go"}, paths)
}

func TestFileSystemIndexNeverEmitsHiddenOrBackup(t *testing.T) {
	src := writeFiles(t, map[string]string{
		"a/.secret/deep/file.go": "x",
		"a/b.go":                 "x",
		"c.go~":                  "x",
		".d.go":                  "x",
	})

	for _, p := range indexPaths(t, src) {
		for _, component := range strings.Split(p, "/") {
			assert.False(t, strings.HasPrefix(component, "."), "hidden component in %s", p)
			assert.False(t, strings.HasSuffix(component, "~"), "backup component in %s", p)
		}
	}
}

func TestFileSystemIndexBinaryOverride(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, util.WriteFile(fsys, "a.dat2", []byte("x"), 0o644))
	require.NoError(t, util.WriteFile(fsys, "b.go", []byte("x"), 0o644))
	src := NewFileSystemSourceFrom(fsys, "/project")

	filter := NewFilterConfig()
	filter.AddBinaryExtension("dat2")
	files, err := src.Index(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "b.go", files[0].Path)
}

func TestFileSystemContent(t *testing.T) {
	src := writeFiles(t, map[string]string{
		"a.txt": "hello",
		"b.bin": "\xff\xfe\x00\x01",
	})

	ctx := context.Background()
	origin := FileSystemOrigin{BasePath: "/project"}

	content, err := src.Content(ctx, SourceFile{Path: "a.txt", Origin: origin})
	require.NoError(t, err)
	assert.Equal(t, "hello", content)

	_, err = src.Content(ctx, SourceFile{Path: "b.bin", Origin: origin})
	assert.ErrorIs(t, err, ErrNotTextFile)

	_, err = src.Content(ctx, SourceFile{Path: "gone.txt", Origin: origin})
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestFileSystemContentRejectsForeignOrigin(t *testing.T) {
	src := writeFiles(t, map[string]string{"a.txt": "hello"})

	_, err := src.Content(context.Background(), SourceFile{
		Path:   "a.txt",
		Origin: GitHubOrigin{Owner: "o", Repo: "r", Branch: "main"},
	})
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestNewFileSystemSourceErrors(t *testing.T) {
	_, err := NewFileSystemSource(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrPathNotFound)

	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewFileSystemSource(file)
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestNewFileSystemSourceLoadsIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.log"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644))

	src, err := NewFileSystemSource(dir)
	require.NoError(t, err)

	files, err := src.Index(context.Background(), NewFilterConfig())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.go", files[0].Path)
}
