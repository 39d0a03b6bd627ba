package markdown

import (
	"bytes"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/rendar/internal/diag"
	"git.home.luguber.info/inful/rendar/internal/frontmatter"
)

// Mode selects how a document body is assembled.
type Mode string

const (
	ModeDocument Mode = "document"
	ModeSlides   Mode = "slides"
)

// RewriteFunc maps one raw link destination to the destination the rendered
// page should carry. A nil issue means the target resolved cleanly.
type RewriteFunc func(dest string) (string, *diag.Issue)

// Page is one rendered document body, ready for the page template.
type Page struct {
	HTML   []byte
	Mode   Mode
	Matter frontmatter.Matter
	Issues []diag.Issue
}

// Engine wraps a configured goldmark instance. Safe for concurrent use; each
// parse carries its own context.
type Engine struct {
	md goldmark.Markdown
}

// NewEngine returns the engine used for site pages: GitHub-flavored Markdown,
// typographer, auto heading IDs, raw HTML passthrough, and class-based syntax
// highlighting so the stylesheet owns the colors.
func NewEngine() *Engine {
	return &Engine{md: goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)}
}

// RenderPage converts one source document into its HTML body. Front matter
// is split off first and selects the mode; link destinations go through
// rewrite when one is given.
func (e *Engine) RenderPage(content []byte, rewrite RewriteFunc) (*Page, error) {
	matter, body := frontmatter.Extract(content)

	doc := e.md.Parser().Parse(text.NewReader(body))
	issues := rewriteDestinations(doc, rewrite)

	if matter.IsSlides() {
		out, err := e.renderSlides(body, doc, "")
		if err != nil {
			return nil, err
		}
		return &Page{HTML: out, Mode: ModeSlides, Matter: matter, Issues: issues}, nil
	}

	var buf bytes.Buffer
	if err := e.md.Renderer().Render(&buf, body, doc); err != nil {
		return nil, err
	}
	out := rewriteMermaidBlocks(buf.String())
	if table := MatterTable(matter); table != "" {
		out = table + out
	}
	return &Page{HTML: []byte(out), Mode: ModeDocument, Matter: matter, Issues: issues}, nil
}

// rewriteDestinations rewrites link destinations on the parsed tree. Image
// destinations are left alone; assets are byte-copied into the output tree,
// so their source paths stay valid.
func rewriteDestinations(doc gmast.Node, rewrite RewriteFunc) []diag.Issue {
	if rewrite == nil {
		return nil
	}
	var issues []diag.Issue
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		// Goldmark resolves reference-style links to a Link node with a Destination.
		if link, ok := n.(*gmast.Link); ok {
			dest, issue := rewrite(string(link.Destination))
			link.Destination = []byte(dest)
			if issue != nil {
				issues = append(issues, *issue)
			}
		}
		return gmast.WalkContinue, nil
	})
	return issues
}
