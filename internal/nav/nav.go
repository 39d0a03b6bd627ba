// Package nav derives the per-page navigation artifacts from the site map:
// the sidebar (sibling pages plus child landing folders) and the breadcrumb
// trail. All links are relative to the page's own output location.
package nav

import (
	"html"
	"path"
	"slices"
	"strings"

	"git.home.luguber.info/inful/rendar/internal/links"
	"git.home.luguber.info/inful/rendar/internal/site"
)

// Link is one sidebar entry.
type Link struct {
	Href  string
	Label string
}

// Crumb is one breadcrumb step. The final crumb carries no href.
type Crumb struct {
	Href  string
	Label string
}

// PageNav holds the navigation artifacts for a single page.
type PageNav struct {
	Siblings []Link // other pages of the same directory, title order
	Folders  []Link // immediate child landing directories, label order
	Crumbs   []Crumb
	EditURL  string
}

// Builder computes navigation from a finished site map. EditURL, when set,
// supplies an optional "edit this page" target per page.
type Builder struct {
	Map     *site.SiteMap
	EditURL func(page *site.PageEntry) string
}

// For builds the navigation artifacts for one page.
func (b *Builder) For(page *site.PageEntry) *PageNav {
	dir := page.Dir()
	n := &PageNav{}

	for _, sib := range b.Map.ByDir[dir] {
		if sib == page {
			continue
		}
		n.Siblings = append(n.Siblings, Link{
			Href:  links.Relative(dir, sib.OutputPath),
			Label: sib.Title,
		})
	}

	for _, child := range b.Map.ChildLandingDirs(dir) {
		n.Folders = append(n.Folders, Link{
			Href:  links.Relative(dir, path.Join(child, "index.html")),
			Label: b.folderLabel(child),
		})
	}
	slices.SortFunc(n.Folders, func(a, c Link) int {
		if cmp := strings.Compare(a.Label, c.Label); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.Href, c.Href)
	})

	n.Crumbs = b.crumbs(page, dir)

	if b.EditURL != nil {
		n.EditURL = b.EditURL(page)
	}
	return n
}

// crumbs walks root to the page's directory, keeping only landing
// directories. The page's own directory is dropped when the page is that
// directory's landing page, so the folder never shows up twice.
func (b *Builder) crumbs(page *site.PageEntry, dir string) []Crumb {
	chain := ancestorChain(dir)
	if b.Map.LandingPage(dir) == page {
		chain = chain[:len(chain)-1]
	}

	var out []Crumb
	for _, ancestor := range chain {
		if !b.Map.LandingDirs.Has(ancestor) {
			continue
		}
		label := "Home"
		if ancestor != "" {
			label = b.folderLabel(ancestor)
		}
		out = append(out, Crumb{
			Href:  links.Relative(dir, path.Join(ancestor, "index.html")),
			Label: label,
		})
	}
	return append(out, Crumb{Label: page.Title})
}

// folderLabel prefers the directory's landing page title over its name.
func (b *Builder) folderLabel(dir string) string {
	if landing := b.Map.LandingPage(dir); landing != nil {
		return landing.Title
	}
	return site.Humanize(path.Base(dir))
}

// ancestorChain lists "" (the root) through dir itself, one step per
// segment.
func ancestorChain(dir string) []string {
	out := []string{""}
	if dir == "" {
		return out
	}
	segs := strings.Split(dir, "/")
	for i := range segs {
		out = append(out, strings.Join(segs[:i+1], "/"))
	}
	return out
}

// NavHTML renders the sidebar fragment for the {{nav}} placeholder.
func (n *PageNav) NavHTML() string {
	if len(n.Siblings) == 0 && len(n.Folders) == 0 {
		return ""
	}
	var b strings.Builder
	if len(n.Siblings) > 0 {
		b.WriteString(`<div class="nav-section">Pages</div><ul>`)
		for _, l := range n.Siblings {
			writeItem(&b, "", l)
		}
		b.WriteString("</ul>")
	}
	if len(n.Folders) > 0 {
		b.WriteString(`<div class="nav-section">Folders</div><ul>`)
		for _, l := range n.Folders {
			writeItem(&b, "nav-folder", l)
		}
		b.WriteString("</ul>")
	}
	return b.String()
}

// BreadcrumbsHTML renders the trail for the {{breadcrumbs}} placeholder,
// with the optional edit link floated alongside.
func (n *PageNav) BreadcrumbsHTML() string {
	var b strings.Builder
	if n.EditURL != "" {
		b.WriteString(`<a class="edit-link" href="`)
		b.WriteString(html.EscapeString(n.EditURL))
		b.WriteString(`">Edit this page</a>`)
	}
	for i, c := range n.Crumbs {
		if i > 0 {
			b.WriteString(`<span class="crumb-sep">/</span>`)
		}
		if c.Href != "" {
			b.WriteString(`<a href="`)
			b.WriteString(html.EscapeString(c.Href))
			b.WriteString(`">`)
			b.WriteString(html.EscapeString(c.Label))
			b.WriteString("</a>")
		} else {
			b.WriteString(`<span class="crumb-current">`)
			b.WriteString(html.EscapeString(c.Label))
			b.WriteString("</span>")
		}
	}
	return b.String()
}

func writeItem(b *strings.Builder, class string, l Link) {
	if class != "" {
		b.WriteString(`<li class="`)
		b.WriteString(class)
		b.WriteString(`">`)
	} else {
		b.WriteString("<li>")
	}
	b.WriteString(`<a href="`)
	b.WriteString(html.EscapeString(l.Href))
	b.WriteString(`">`)
	b.WriteString(html.EscapeString(l.Label))
	b.WriteString("</a></li>")
}
