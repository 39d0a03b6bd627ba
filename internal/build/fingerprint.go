package build

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/rendar/internal/frontmatter"
)

// contentFingerprint digests one markup document, front matter and body as
// separate parts.
func contentFingerprint(content []byte) string {
	raw, body, had, _, err := frontmatter.Split(content)
	if err != nil || !had {
		return mdfp.CalculateFingerprintFromParts("", string(content))
	}
	return mdfp.CalculateFingerprintFromParts(string(raw), string(body))
}

// hashBytes is the asset fingerprint: hex sha256 of the file contents.
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// treeFingerprint folds the per-file digests into one stable tree digest.
// The preview server compares it across rebuilds to skip the reload signal
// when a save changed nothing.
func treeFingerprint(prints map[string]string) string {
	keys := make([]string, 0, len(prints))
	for k := range prints {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s\n", k, prints[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
