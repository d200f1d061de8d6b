package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDir(t *testing.T) {
	now := time.Date(2026, 8, 29, 14, 5, 9, 0, time.UTC)
	assert.Equal(t, "variants_20260829_140509", RunDir("", now))
	assert.Equal(t, "out", RunDir("out", now))
}

func TestPerInputDir(t *testing.T) {
	assert.Equal(t, "run_letter", PerInputDir("run", "/tmp/docs/letter.html"))
}

func TestWriterWriteVariant(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w, err := NewWriter(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, w.Dir())

	path, err := w.WriteVariant("doc_", 7, "<p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "doc_variant_007.html"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", string(content))
}

func TestFilenamePrefixes(t *testing.T) {
	t.Run("unique stems", func(t *testing.T) {
		prefixes := FilenamePrefixes([]string{"a/one.html", "a/two.html"})
		assert.Equal(t, "one_", prefixes["a/one.html"])
		assert.Equal(t, "two_", prefixes["a/two.html"])
	})

	t.Run("duplicate stems use parent directory", func(t *testing.T) {
		prefixes := FilenamePrefixes([]string{"a/page.html", "b/page.html"})
		assert.Equal(t, "page_a_", prefixes["a/page.html"])
		assert.Equal(t, "page_b_", prefixes["b/page.html"])
	})

	t.Run("identical stem and parent get a counter", func(t *testing.T) {
		prefixes := FilenamePrefixes([]string{"x/page.html", "x/page.htm"})
		values := []string{prefixes["x/page.html"], prefixes["x/page.htm"]}
		assert.Contains(t, values, "page_x_")
		assert.Contains(t, values, "page_x_2_")
	})

	t.Run("odd characters are sanitized", func(t *testing.T) {
		prefixes := FilenamePrefixes([]string{"my dir!/page.html", "other/page.html"})
		assert.Equal(t, "page_my_dir_", prefixes["my dir!/page.html"])
	})
}
