package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyByExtension(t *testing.T) {
	assert.True(t, IsContentFile("guide.md"))
	assert.True(t, IsContentFile("guide.markdown"))
	assert.True(t, IsContentFile("GUIDE.MD"))
	assert.False(t, IsContentFile("data.csv"))
	assert.False(t, IsContentFile("notes.txt"))
	assert.False(t, IsContentFile("md"))

	assert.True(t, IsCSVFile("data.csv"))
	assert.True(t, IsCSVFile("DATA.CSV"))
	assert.False(t, IsCSVFile("data.tsv"))
}

func TestClassifySpecialStems(t *testing.T) {
	assert.True(t, IsReadme("README.md"))
	assert.True(t, IsReadme("docs/readme.markdown"))
	assert.False(t, IsReadme("readme.csv"))
	assert.False(t, IsReadme("not-a-readme.md"))

	assert.True(t, IsIndex("index.md"))
	assert.True(t, IsIndex("sub/INDEX.MD"))
	assert.False(t, IsIndex("index.csv"))
	assert.False(t, IsIndex("reindex.md"))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "release notes 2024", Humanize("release-notes_2024"))
	assert.Equal(t, "API", Humanize("API"))
	assert.Equal(t, "", Humanize(""))
}

func TestIsInside(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	inner := filepath.Join(base, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(inner, "deep"), 0o755))

	assert.True(t, IsInside(inner, base))
	assert.True(t, IsInside(filepath.Join(inner, "deep"), inner))
	assert.True(t, IsInside(base, base))
	assert.False(t, IsInside(base, inner))

	// A sibling whose name shares a prefix is not inside.
	sibling := filepath.Join(base, "output")
	require.NoError(t, os.MkdirAll(sibling, 0o755))
	assert.False(t, IsInside(sibling, inner))

	// Paths that do not exist yet compare by their literal absolute form.
	assert.True(t, IsInside(filepath.Join(inner, "future.html"), inner))
}
