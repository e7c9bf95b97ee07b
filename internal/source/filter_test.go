package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuiltinBinaryTable(t *testing.T) {
	filter := NewFilterConfig()

	// One representative per category.
	for _, ext := range []string{"exe", "zip", "png", "mp3", "mkv", "pdf", "sqlite", "woff2", "pyc"} {
		assert.False(t, filter.IsTextExtension(ext), "expected %s to be binary", ext)
	}
	for _, ext := range []string{"go", "rs", "md", "txt", "yaml"} {
		assert.True(t, filter.IsTextExtension(ext), "expected %s to be text", ext)
	}
}

func TestNoExtensionIsText(t *testing.T) {
	filter := NewFilterConfig()
	assert.True(t, filter.IsTextExtension(""))
}

func TestCaseInsensitiveLookup(t *testing.T) {
	filter := NewFilterConfig()
	assert.False(t, filter.IsTextExtension("PNG"))
	assert.False(t, filter.IsTextExtension("Exe"))

	filter.AddTextExtension("SVG")
	assert.True(t, filter.IsTextExtension("svg"))
}

func TestOverridePrecedence(t *testing.T) {
	filter := NewFilterConfig()

	// Text override wins over the built-in table.
	filter.AddTextExtension("bin")
	assert.True(t, filter.IsTextExtension("bin"))

	// Binary override wins over the text override.
	filter.AddBinaryExtension("bin")
	assert.False(t, filter.IsTextExtension("bin"))

	// Binary override applies to extensions unknown to the table too.
	filter.AddBinaryExtension("foo")
	assert.False(t, filter.IsTextExtension("foo"))
}

func TestExt(t *testing.T) {
	assert.Equal(t, "go", Ext("cmd/main.go"))
	assert.Equal(t, "log", Ext("dir/a.b.LOG"))
	assert.Equal(t, "", Ext("Makefile"))
	assert.Equal(t, "", Ext("dir.d/README"))
}

func TestIncludePath(t *testing.T) {
	filter := NewFilterConfig()

	assert.True(t, includePath("src/main.go", filter))
	assert.False(t, includePath("src/main.go~", filter))
	assert.False(t, includePath(".github/workflows/ci.yml", filter))
	assert.False(t, includePath("docs/.hidden/readme.md", filter))
	assert.False(t, includePath("assets/logo.png", filter))
}
