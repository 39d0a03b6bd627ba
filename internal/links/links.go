package links

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/rendar/internal/diag"
	"git.home.luguber.info/inful/rendar/internal/util/sets"
)

// Resolver rewrites link destinations found in page content into the
// destinations the rendered site should carry.
type Resolver struct {
	Root      string           // absolute source root
	IndexDirs sets.Set[string] // slash-relative directories containing an index file
}

// Rewrite maps one raw destination from a page whose source-relative path is
// sourceRel. Non-markup destinations, fragments, scheme URLs, mailto: and
// tel: pass through untouched. Markup destinations are rewritten to their
// output names; a missing target yields an advisory issue alongside the
// rewritten link.
func (r *Resolver) Rewrite(dest, sourceRel string) (string, *diag.Issue) {
	base, suffix, ok := splitLink(dest)
	if !ok {
		return dest, nil
	}
	if base == "" || strings.HasPrefix(base, "#") || hasScheme(base) ||
		strings.HasPrefix(base, "mailto:") || strings.HasPrefix(base, "tel:") {
		return dest, nil
	}

	normalized := NormalizePath(base)
	if !isMarkupPath(normalized) {
		return dest, nil
	}

	targetAbs, targetDir, inRoot := r.resolve(normalized, sourceRel)

	var issue *diag.Issue
	if _, err := os.Stat(targetAbs); err != nil {
		missing := diag.MissingLinkTarget(normalized, sourceRel)
		issue = &missing
	}

	replacement := replaceMarkupExtension(normalized)
	if isReadmePath(normalized) && !(inRoot && r.IndexDirs.Has(targetDir)) {
		// The README stands in for the directory's missing index page.
		replacement = readmeToIndex(normalized)
	}
	return replacement + suffix, issue
}

// resolve turns a normalized destination into the absolute filesystem path
// it names, plus the target's directory relative to the root. inRoot is
// false when the target climbs out of the source tree.
func (r *Resolver) resolve(normalized, sourceRel string) (absPath, relDir string, inRoot bool) {
	if strings.HasPrefix(normalized, "/") {
		rel := strings.TrimPrefix(normalized, "/")
		return filepath.Join(r.Root, filepath.FromSlash(rel)), relDirKey(rel), true
	}

	sourceDir := relDirKey(sourceRel)
	joined := path.Join(sourceDir, normalized)
	absPath = filepath.Join(r.Root, filepath.FromSlash(joined))
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return absPath, "", false
	}
	return absPath, relDirKey(joined), true
}

func relDirKey(rel string) string {
	d := path.Dir(rel)
	if d == "." || d == "/" {
		return ""
	}
	return d
}

func hasScheme(dest string) bool {
	return strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://")
}

func isMarkupPath(dest string) bool {
	switch strings.ToLower(path.Ext(dest)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func isReadmePath(dest string) bool {
	return isMarkupPath(dest) && strings.EqualFold(stemOf(dest), "readme")
}

func stemOf(dest string) string {
	base := path.Base(dest)
	return strings.TrimSuffix(base, path.Ext(base))
}

// replaceMarkupExtension rewrites a markup destination to its .html output
// name, preserving the stem's case and the absolute-vs-relative form.
func replaceMarkupExtension(dest string) string {
	return rebuildWithName(dest, stemOf(dest)+".html")
}

// readmeToIndex rewrites a README destination to the directory's index.html.
func readmeToIndex(dest string) string {
	return rebuildWithName(dest, "index.html")
}

func rebuildWithName(dest, name string) string {
	absolute := strings.HasPrefix(dest, "/")
	dir := path.Dir(dest)

	var b strings.Builder
	if absolute {
		b.WriteString("/")
		trimmed := strings.TrimPrefix(dir, "/")
		if trimmed != "" && trimmed != "." {
			b.WriteString(trimmed)
			b.WriteString("/")
		}
	} else if dir != "" && dir != "." {
		b.WriteString(dir)
		b.WriteString("/")
	}
	b.WriteString(name)
	return b.String()
}
