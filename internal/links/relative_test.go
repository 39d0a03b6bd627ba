package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelative(t *testing.T) {
	cases := []struct {
		fromDir string
		target  string
		want    string
	}{
		{"", "style.css", "style.css"},
		{"", "docs/index.html", "docs/index.html"},
		{"docs", "style.css", "../style.css"},
		{"docs/guide", "style.css", "../../style.css"},
		{"docs/guide", "docs/other/page.html", "../other/page.html"},
		{"docs", "docs/guide/intro.html", "guide/intro.html"},
		{"a", "a", "."},
		{"", "", "."},
		{"a/b", "", "../.."},
	}
	for _, tc := range cases {
		got := Relative(tc.fromDir, tc.target)
		assert.Equal(t, tc.want, got, "from %q to %q", tc.fromDir, tc.target)
	}
}
