package markdown

import "strings"

const (
	mermaidOpen  = `<pre><code class="language-mermaid">`
	mermaidClose = `</code></pre>`
)

// rewriteMermaidBlocks turns fenced mermaid code blocks into the bare
// <pre class="mermaid"> form the client-side diagram renderer looks for.
// Chroma has no mermaid lexer, so the highlighter emits these blocks in
// plain language-class form.
func rewriteMermaidBlocks(html string) string {
	rest := html
	start := strings.Index(rest, mermaidOpen)
	if start < 0 {
		return html
	}

	var b strings.Builder
	b.Grow(len(html))
	for start >= 0 {
		b.WriteString(rest[:start])
		b.WriteString(`<pre class="mermaid">`)
		rest = rest[start+len(mermaidOpen):]
		end := strings.Index(rest, mermaidClose)
		if end < 0 {
			b.WriteString(rest)
			rest = ""
			break
		}
		b.WriteString(rest[:end])
		b.WriteString("</pre>")
		rest = rest[end+len(mermaidClose):]
		start = strings.Index(rest, mermaidOpen)
	}
	b.WriteString(rest)
	return b.String()
}
