package markdown

import (
	"bytes"
	"fmt"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
)

// renderSlides renders doc as a slide deck, split on top-level headings.
// tableHTML, when non-empty, becomes an extra leading slide.
func (e *Engine) renderSlides(source []byte, doc gmast.Node, tableHTML string) ([]byte, error) {
	groups := splitSlides(doc)

	slideCount := len(groups)
	if tableHTML != "" {
		slideCount++
	}

	var out strings.Builder
	fmt.Fprintf(&out, `<div class="slides-root" data-slide-count="%d" tabindex="0">`, slideCount)

	offset := 0
	if tableHTML != "" {
		out.WriteString(`<section class="slide is-active" id="slide-1" data-slide="1">`)
		out.WriteString(tableHTML)
		out.WriteString(`</section>`)
		offset = 1
	}

	for idx, group := range groups {
		slideDoc := gmast.NewDocument()
		for _, n := range group {
			slideDoc.AppendChild(slideDoc, n)
		}
		var buf bytes.Buffer
		if err := e.md.Renderer().Render(&buf, source, slideDoc); err != nil {
			return nil, err
		}
		slideHTML := rewriteMermaidBlocks(buf.String())

		i := idx + offset
		active, hidden := "", ` aria-hidden="true"`
		if i == 0 {
			active, hidden = " is-active", ""
		}
		fmt.Fprintf(&out, `<section class="slide%s" id="slide-%d" data-slide="%d"%s>`, active, i+1, i+1, hidden)
		out.WriteString(slideHTML)
		out.WriteString(`</section>`)
	}

	fmt.Fprintf(&out, `<div class="slides-progress">1 / %d</div>`, slideCount)
	out.WriteString(`</div>`)
	return []byte(out.String()), nil
}

// splitSlides groups the document's top-level blocks into slides. Content
// ahead of the first H1 folds into that heading's slide; a document with no
// H1 stays one slide.
func splitSlides(doc gmast.Node) [][]gmast.Node {
	var blocks []gmast.Node
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		blocks = append(blocks, c)
	}

	var slides [][]gmast.Node
	var current, pending []gmast.Node
	seenH1 := false

	for _, b := range blocks {
		if h, ok := b.(*gmast.Heading); ok && h.Level == 1 {
			if !seenH1 {
				seenH1 = true
				current = append(current, pending...)
				pending = nil
			} else if len(current) > 0 {
				slides = append(slides, current)
				current = nil
			}
			current = append(current, b)
			continue
		}
		if seenH1 {
			current = append(current, b)
		} else {
			pending = append(pending, b)
		}
	}

	if seenH1 {
		if len(current) > 0 {
			slides = append(slides, current)
		}
	} else {
		slides = append(slides, pending)
	}
	if len(slides) == 0 {
		slides = append(slides, nil)
	}
	return slides
}
