package site

import (
	"path/filepath"
	"strings"
)

// IsContentFile reports whether path names a markup source file, by
// extension, case-insensitively.
func IsContentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// IsCSVFile reports whether path names a CSV file, case-insensitively.
func IsCSVFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// IsReadme reports whether path is a content file whose stem is "readme",
// case-insensitively (README.md, readme.markdown, ...).
func IsReadme(path string) bool {
	return IsContentFile(path) && strings.EqualFold(stem(path), "readme")
}

// IsIndex reports whether path is a content file whose stem is "index",
// case-insensitively.
func IsIndex(path string) bool {
	return IsContentFile(path) && strings.EqualFold(stem(path), "index")
}

// Humanize turns a file or directory name into display text by replacing
// dashes and underscores with spaces. No casing is applied.
func Humanize(name string) string {
	return strings.NewReplacer("-", " ", "_", " ").Replace(name)
}

// IsInside reports whether path lives under root after best-effort
// canonicalization. When a path cannot be canonicalized (e.g. it does not
// exist yet) the literal absolute path is compared instead.
func IsInside(path, root string) bool {
	p := canonicalize(path)
	r := canonicalize(root)
	if p == r {
		return true
	}
	return strings.HasPrefix(p, r+string(filepath.Separator))
}

func canonicalize(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	return p
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
