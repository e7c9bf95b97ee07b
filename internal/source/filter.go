package source

import "strings"

// binaryExtensions is the built-in table of extensions treated as binary.
// Fixed asset; category coverage matters more than exhaustiveness.
var binaryExtensions = map[string]struct{}{}

func init() {
	groups := [][]string{
		// executables and object code
		{"exe", "dll", "so", "dylib", "bin", "app", "msi", "sys", "com", "o", "obj", "class"},
		// archives and compressed
		{"zip", "rar", "7z", "tar", "gz", "bz2", "xz", "iso", "dmg", "img", "tgz"},
		// images
		{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp", "ico", "svg", "eps", "raw", "cr2", "nef", "heic"},
		// audio
		{"mp3", "wav", "ogg", "flac", "m4a", "wma", "aac", "mid", "midi", "aiff"},
		// video
		{"mp4", "avi", "mkv", "mov", "wmv", "flv", "webm", "m4v", "mpg", "mpeg", "3gp"},
		// documents and publishing
		{"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "pages", "numbers", "key", "indd", "psd", "ai"},
		// databases
		{"db", "sqlite", "mdb", "accdb", "dbf", "dat", "mdf", "sdf"},
		// fonts
		{"ttf", "otf", "woff", "woff2", "eot"},
		// bytecode, packages, misc binary
		{"pyc", "pyo", "pyd", "jar", "war", "deb", "rpm", "lib", "a", "pak", "cache", "idx", "mo", "gmo", "pdb"},
	}
	for _, g := range groups {
		for _, ext := range g {
			binaryExtensions[ext] = struct{}{}
		}
	}
}

// FilterConfig holds the per-session extension overrides layered on top of
// the built-in binary table. Binary overrides take precedence over text
// overrides, which take precedence over the table. Constructed once per
// session; must not be mutated during an index or merge run.
type FilterConfig struct {
	TextExtensions   map[string]struct{}
	BinaryExtensions map[string]struct{}
}

// NewFilterConfig returns an empty override set.
func NewFilterConfig() *FilterConfig {
	return &FilterConfig{
		TextExtensions:   make(map[string]struct{}),
		BinaryExtensions: make(map[string]struct{}),
	}
}

// AddTextExtension marks ext (without dot, any case) as text.
func (c *FilterConfig) AddTextExtension(ext string) {
	c.TextExtensions[normalizeExt(ext)] = struct{}{}
}

// AddBinaryExtension marks ext (without dot, any case) as binary.
func (c *FilterConfig) AddBinaryExtension(ext string) {
	c.BinaryExtensions[normalizeExt(ext)] = struct{}{}
}

// IsTextExtension reports whether a file with the given extension should be
// indexed. Files with no extension are always text.
func (c *FilterConfig) IsTextExtension(ext string) bool {
	if ext == "" {
		return true
	}
	ext = normalizeExt(ext)
	if _, ok := c.BinaryExtensions[ext]; ok {
		return false
	}
	if _, ok := c.TextExtensions[ext]; ok {
		return true
	}
	_, binary := binaryExtensions[ext]
	return !binary
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// includePath applies the name rules shared by both backends to a relative
// posix path: backup files (trailing ~) are excluded, dot-prefixed
// components are excluded, and classified-binary extensions are excluded.
func includePath(relPath string, filter *FilterConfig) bool {
	if strings.HasSuffix(relPath, "~") {
		return false
	}
	if !filter.IsTextExtension(Ext(relPath)) {
		return false
	}
	for _, component := range strings.Split(relPath, "/") {
		if strings.HasPrefix(component, ".") {
			return false
		}
	}
	return true
}
