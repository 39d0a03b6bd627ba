package site

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/rendar/internal/markdown"
	"git.home.luguber.info/inful/rendar/internal/util/sets"
)

// PageEntry describes one content file discovered in the source tree.
// Entries are built once per site-map pass and never mutated afterwards.
type PageEntry struct {
	SourcePath string // slash-separated, relative to the source root
	OutputPath string // source path with the extension swapped to .html
	Title      string // first heading, else humanized filename
	IsIndex    bool
	IsReadme   bool
	IsCSV      bool // rendered as a table preview, not through the markdown engine
}

// Dir returns the entry's containing directory relative to the source root,
// "" for the root itself.
func (p *PageEntry) Dir() string {
	return dirKey(p.SourcePath)
}

// SiteMap is the registry of all content pages and directory
// classifications for one build pass.
type SiteMap struct {
	Root        string                  // absolute source root
	ByDir       map[string][]*PageEntry // title-ordered page lists per directory
	ByPath      map[string]*PageEntry   // source-relative path lookup
	IndexDirs   sets.Set[string]        // directories containing an index file
	LandingDirs sets.Set[string]        // directories containing an index or README
}

// WalkConfig bounds a site-map walk.
type WalkConfig struct {
	Root     string    // absolute source root
	Output   string    // absolute output directory to skip, "" when disjoint
	Excludes *Excludes // optional
}

// BuildSiteMap walks the source tree once and returns the populated map.
// Traversal errors are fatal. The walk never descends into the output
// directory, hidden entries, or excluded paths.
func BuildSiteMap(cfg WalkConfig) (*SiteMap, error) {
	m := &SiteMap{
		Root:        cfg.Root,
		ByDir:       make(map[string][]*PageEntry),
		ByPath:      make(map[string]*PageEntry),
		IndexDirs:   sets.New[string](),
		LandingDirs: sets.New[string](),
	}

	err := WalkTree(cfg, func(rel, abs string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}

		var entry *PageEntry
		switch {
		case IsContentFile(abs):
			data, err := os.ReadFile(abs)
			if err != nil {
				return fmt.Errorf("read %s: %w", rel, err)
			}
			title := markdown.DocumentTitle(data)
			if title == "" {
				title = Humanize(stem(abs))
			}
			entry = &PageEntry{
				SourcePath: rel,
				OutputPath: strings.TrimSuffix(rel, path.Ext(rel)) + ".html",
				Title:      title,
				IsIndex:    IsIndex(abs),
				IsReadme:   IsReadme(abs),
			}
		case IsCSVFile(abs):
			// CSV previews keep the full file name visible in navigation.
			entry = &PageEntry{
				SourcePath: rel,
				OutputPath: rel + ".html",
				Title:      path.Base(rel),
				IsCSV:      true,
			}
		default:
			return nil
		}
		dir := dirKey(rel)
		m.ByDir[dir] = append(m.ByDir[dir], entry)
		m.ByPath[rel] = entry
		if entry.IsIndex {
			m.IndexDirs.Add(dir)
		}
		if entry.IsIndex || entry.IsReadme {
			m.LandingDirs.Add(dir)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Title order is a published contract for navigation; source path breaks
	// ties so repeated builds agree.
	for _, pages := range m.ByDir {
		slices.SortFunc(pages, func(a, b *PageEntry) int {
			if c := strings.Compare(a.Title, b.Title); c != 0 {
				return c
			}
			return strings.Compare(a.SourcePath, b.SourcePath)
		})
	}
	return m, nil
}

// Page returns the entry for a source-relative path, nil when absent.
func (m *SiteMap) Page(rel string) *PageEntry {
	return m.ByPath[rel]
}

// LandingPage returns the directory's index entry when it has one, else its
// README entry, else nil.
func (m *SiteMap) LandingPage(dir string) *PageEntry {
	var index, readme *PageEntry
	for _, p := range m.ByDir[dir] {
		if p.IsIndex && (index == nil || p.SourcePath < index.SourcePath) {
			index = p
		}
		if p.IsReadme && (readme == nil || p.SourcePath < readme.SourcePath) {
			readme = p
		}
	}
	if index != nil {
		return index
	}
	return readme
}

// ChildLandingDirs returns the immediate subdirectories of dir that have a
// landing page. Order is unspecified; callers sort by label.
func (m *SiteMap) ChildLandingDirs(dir string) []string {
	var out []string
	for d := range m.LandingDirs {
		if d != "" && dirKey(d) == dir {
			out = append(out, d)
		}
	}
	return out
}

// WalkTree walks the source tree and calls fn for every directory and file
// that passes the shared filters: hidden entries, the output directory, and
// excluded paths are skipped, subtrees included. rel is slash-separated and
// relative to cfg.Root. The site-map pass and the build pipeline share this
// walk so both always agree on what is part of the site.
func WalkTree(cfg WalkConfig, fn func(rel, abs string, d fs.DirEntry) error) error {
	err := filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == cfg.Root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return skip(d)
		}
		if cfg.Output != "" && IsInside(p, cfg.Output) {
			return skip(d)
		}
		rel, err := filepath.Rel(cfg.Root, p)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", p, err)
		}
		rel = filepath.ToSlash(rel)
		if cfg.Excludes.Match(rel) {
			return skip(d)
		}
		return fn(rel, p, d)
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", cfg.Root, err)
	}
	return nil
}

func skip(d fs.DirEntry) error {
	if d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

func dirKey(rel string) string {
	d := path.Dir(rel)
	if d == "." {
		return ""
	}
	return d
}
