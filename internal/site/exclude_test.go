package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileExcludesNothingConfigured(t *testing.T) {
	for _, globs := range [][]string{nil, {}, {"", "   "}} {
		ex, err := CompileExcludes(globs)
		require.NoError(t, err)
		assert.Nil(t, ex)
	}

	var nilEx *Excludes
	assert.False(t, nilEx.Match("anything.md"))
}

func TestExcludesMatch(t *testing.T) {
	cases := []struct {
		glob  string
		rel   string
		match bool
	}{
		{"drafts/**", "drafts/wip.md", true},
		{"drafts/**", "drafts/sub/deep.md", true},
		{"drafts/**", "drafts-old/wip.md", false},
		{"drafts/**", "drafts", false},
		{"*.tmp", "scratch.tmp", true},
		{"*.tmp", "sub/scratch.tmp", false},
		{"**/*.bak", "sub/old.bak", true},
		{"**/*.bak", "a/b/c.bak", true},
		{"doc?.md", "doc1.md", true},
		{"doc?.md", "doc10.md", false},
		{"doc?.md", "docs/x.md", false},
		{"a.md", "aXmd", false},
		{"a.md", "a.md", true},
	}
	for _, tc := range cases {
		ex, err := CompileExcludes([]string{tc.glob})
		require.NoError(t, err)
		assert.Equal(t, tc.match, ex.Match(tc.rel), "glob %q against %q", tc.glob, tc.rel)
	}
}

func TestExcludesMatchAnyPattern(t *testing.T) {
	ex, err := CompileExcludes([]string{"drafts/**", "*.tmp", ""})
	require.NoError(t, err)

	assert.True(t, ex.Match("drafts/a.md"))
	assert.True(t, ex.Match("note.tmp"))
	assert.False(t, ex.Match("docs/guide.md"))
}
