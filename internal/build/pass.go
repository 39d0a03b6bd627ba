package build

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/rendar/internal/csvpreview"
	"git.home.luguber.info/inful/rendar/internal/diag"
	"git.home.luguber.info/inful/rendar/internal/links"
	"git.home.luguber.info/inful/rendar/internal/markdown"
	"git.home.luguber.info/inful/rendar/internal/nav"
	"git.home.luguber.info/inful/rendar/internal/site"
	"git.home.luguber.info/inful/rendar/internal/template"
)

// pass carries the per-run state of one traversal.
type pass struct {
	b         *Builder
	dryRun    bool
	m         *site.SiteMap
	engine    *markdown.Engine
	resolver  *links.Resolver
	nav       *nav.Builder
	tpl       *template.Template
	collector diag.Collector
	prints    map[string]string
	pages     int
	assets    int
}

// dir mirrors a source directory, so empty ones survive the conversion.
func (p *pass) dir(rel string) error {
	if p.dryRun {
		return nil
	}
	abs := filepath.Join(p.b.Output, filepath.FromSlash(rel))
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("mirror directory %s: %w", rel, err)
	}
	return nil
}

// page renders one markup file, duplicating README output to index.html
// when no index file shadows it.
func (p *pass) page(rel, abs string) error {
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	p.prints[rel] = contentFingerprint(data)

	pg, err := p.engine.RenderPage(data, func(dest string) (string, *diag.Issue) {
		return p.resolver.Rewrite(dest, rel)
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", rel, err)
	}
	for _, issue := range pg.Issues {
		p.collector.Add(issue)
	}

	entry := p.m.Page(rel)
	if entry == nil {
		return nil
	}
	pn := p.nav.For(entry)
	d := template.PageData{
		Title:       entry.Title,
		Content:     string(pg.HTML),
		Nav:         pn.NavHTML(),
		Breadcrumbs: pn.BreadcrumbsHTML(),
	}
	if pg.Mode == markdown.ModeSlides {
		d.ExtraHead = template.SlidesExtraHead()
		d.ExtraBody = template.SlidesExtraBody()
	}
	doc := []byte(p.tpl.Render(d))

	p.pages++
	if err := p.write(entry.OutputPath, doc); err != nil {
		return err
	}

	dir := entry.Dir()
	if entry.IsReadme && !p.m.IndexDirs.Has(dir) && p.m.LandingPage(dir) == entry {
		p.pages++
		if err := p.write(path.Join(dir, "index.html"), doc); err != nil {
			return err
		}
	}
	return nil
}

// csv writes the table preview page next to a verbatim copy of the file.
// Check mode skips CSVs entirely; they carry no links to verify.
func (p *pass) csv(rel, abs string) error {
	if p.dryRun {
		return nil
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	p.prints[rel] = hashBytes(data)

	table, err := csvpreview.Render(data, p.b.csvMaxRows())
	if err != nil {
		return fmt.Errorf("render CSV preview %s: %w", rel, err)
	}

	entry := p.m.Page(rel)
	if entry == nil {
		return nil
	}
	pn := p.nav.For(entry)
	doc := p.tpl.Render(template.PageData{
		Title:       entry.Title,
		Content:     table,
		Nav:         pn.NavHTML(),
		Breadcrumbs: pn.BreadcrumbsHTML(),
	})

	p.pages++
	if err := p.write(entry.OutputPath, []byte(doc)); err != nil {
		return err
	}
	p.assets++
	return p.write(rel, data)
}

// asset copies any other file byte-for-byte.
func (p *pass) asset(rel, abs string) error {
	if p.dryRun {
		return nil
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	p.prints[rel] = hashBytes(data)

	p.assets++
	return p.write(rel, data)
}

func (p *pass) write(rel string, data []byte) error {
	if p.dryRun {
		return nil
	}
	abs := filepath.Join(p.b.Output, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}
