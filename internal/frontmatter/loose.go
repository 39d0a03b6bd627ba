package frontmatter

import "strings"

// Entry is one key/value pair, in document order. Duplicate keys are kept.
type Entry struct {
	Key   string
	Value string
}

// Matter is the parsed front matter of one document.
type Matter struct {
	Entries []Entry
	Mode    string // lowercased "mode" value, "" when absent
}

// IsSlides reports whether the document asked for slide rendering.
func (m Matter) IsSlides() bool { return m.Mode == "slides" }

// IsEmpty reports whether no entries were parsed.
func (m Matter) IsEmpty() bool { return len(m.Entries) == 0 }

// ParseLoose scans raw front matter (without fences) as loose `key: value`
// lines. The grammar is deliberately forgiving: lines are split at the first
// colon, keys and values are whitespace-trimmed, surrounding single or double
// quotes are stripped from values, and blank lines, `#` comments, and lines
// with an empty key are skipped. Anything else is ignored rather than
// rejected. This laxness is load-bearing for documents written by hand; do
// not swap in a strict parser.
func ParseLoose(raw []byte) Matter {
	var m Matter
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		m.Entries = append(m.Entries, Entry{Key: key, Value: value})
		if key == "mode" && value != "" {
			m.Mode = strings.ToLower(value)
		}
	}
	return m
}

// Extract splits content at the front matter fences and loose-parses the
// block. It never fails: an unterminated or absent block yields an empty
// Matter and the full content as body.
func Extract(content []byte) (Matter, []byte) {
	raw, body, had, _, err := Split(content)
	if err != nil || !had {
		return Matter{}, content
	}
	return ParseLoose(raw), body
}
