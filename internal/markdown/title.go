package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/rendar/internal/frontmatter"
)

// DocumentTitle returns the text of the first heading carrying any, with
// front matter excluded. Empty when no heading has text.
func DocumentTitle(content []byte) string {
	_, body := frontmatter.Extract(content)

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(body))

	title := ""
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		if t := headingText(body, h); t != "" {
			title = t
			return gmast.WalkStop, nil
		}
		return gmast.WalkSkipChildren, nil
	})
	return title
}

func headingText(source []byte, h *gmast.Heading) string {
	var b strings.Builder
	_ = gmast.Walk(h, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if t, ok := n.(*gmast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
