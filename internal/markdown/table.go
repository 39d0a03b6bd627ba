package markdown

import (
	"html"
	"strings"

	"git.home.luguber.info/inful/rendar/internal/frontmatter"
)

// MatterTable renders front-matter entries as the two-column table shown
// ahead of document content. Returns "" when there are no entries.
func MatterTable(m frontmatter.Matter) string {
	if m.IsEmpty() {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<table class="front-matter-table"><thead><tr><th>Key</th><th>Value</th></tr></thead><tbody>`)
	for _, e := range m.Entries {
		b.WriteString("<tr><td>")
		b.WriteString(html.EscapeString(e.Key))
		b.WriteString("</td><td>")
		b.WriteString(html.EscapeString(e.Value))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}
