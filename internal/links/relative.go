package links

import "strings"

// Relative computes the path from fromDir to target, both slash-relative to
// the same root. An empty fromDir means the root itself. The result uses one
// ".." per remaining fromDir segment past the common prefix, or "." when the
// two coincide.
func Relative(fromDir, target string) string {
	from := splitSegments(fromDir)
	to := splitSegments(target)

	common := 0
	for common < len(from) && common < len(to) && from[common] == to[common] {
		common++
	}

	var parts []string
	for i := common; i < len(from); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

func splitSegments(p string) []string {
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}
