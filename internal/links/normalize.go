package links

import "strings"

// NormalizePath collapses dot segments in a slash-separated link path.
// `.` segments are dropped. `..` pops the previous normal segment; a `..`
// that has nothing left to pop is kept for relative paths and dropped for
// absolute ones, so relative links can still climb out of the page's
// directory while absolute links never escape the root.
func NormalizePath(p string) string {
	isAbsolute := strings.HasPrefix(p, "/")
	var parts []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if n := len(parts); n > 0 {
				if parts[n-1] != ".." {
					parts = parts[:n-1]
				} else if !isAbsolute {
					parts = append(parts, "..")
				}
			} else if !isAbsolute {
				parts = append(parts, "..")
			}
		default:
			parts = append(parts, seg)
		}
	}

	if isAbsolute {
		if len(parts) == 0 {
			return "/"
		}
		return "/" + strings.Join(parts, "/")
	}
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

// splitLink separates a destination into its path part and the first
// `#`-or-`?` suffix, preserved verbatim. ok is false only for empty input.
func splitLink(dest string) (base, suffix string, ok bool) {
	if dest == "" {
		return "", "", false
	}
	if i := strings.IndexAny(dest, "#?"); i >= 0 {
		return dest[:i], dest[i:], true
	}
	return dest, "", true
}
