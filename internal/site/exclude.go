package site

import (
	"fmt"
	"regexp"
	"strings"
)

// Excludes filters walk entries by glob patterns. Patterns match against
// slash-separated paths relative to the source root: `*` and `?` stay within
// one path segment, `**` crosses segment boundaries.
type Excludes struct {
	patterns []*regexp.Regexp
}

// CompileExcludes builds an exclude filter from glob patterns. Blank
// patterns are ignored. A nil result with nil error means nothing was
// configured.
func CompileExcludes(globs []string) (*Excludes, error) {
	out := make([]*regexp.Regexp, 0, len(globs))
	for _, g := range globs {
		if strings.TrimSpace(g) == "" {
			continue
		}
		r, err := regexp.Compile(globToRegex(g))
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %s: %w", g, err)
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &Excludes{patterns: out}, nil
}

// Match reports whether rel (slash-separated, relative to the source root)
// is excluded. Safe on a nil receiver.
func (e *Excludes) Match(rel string) bool {
	if e == nil {
		return false
	}
	for _, rx := range e.patterns {
		if rx.MatchString(rel) {
			return true
		}
	}
	return false
}

// globToRegex converts a path glob to an anchored regex string.
func globToRegex(glob string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '.', '+', '(', ')', '|', '^', '$', '{', '}', '[', ']', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteString("$")
	return b.String()
}
