package frontmatter

import (
	"bytes"
	"errors"
)

// Style captures formatting details needed for stable rewriting.
//
// It intentionally focuses on newline shape and does not attempt to preserve
// original block formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Split separates front matter (`---` delimited) from the Markdown body.
//
// If the document does not start with a front matter delimiter, had is false
// and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)

	nl := style.Newline
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	frontmatterStart := len(open)
	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(content[frontmatterStart:], closeLine) {
		bodyStart := frontmatterStart + len(closeLine)
		return []byte{}, content[bodyStart:], true, style, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[frontmatterStart:], closeSeq)
	if idx < 0 {
		// A closing fence on the very last line without a trailing newline
		// still closes the block.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(content, tail) {
			end := len(content) - len("---")
			return content[frontmatterStart:end], []byte{}, true, style, nil
		}
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}

	frontmatterEnd := frontmatterStart + idx + len(nl)
	bodyStart := frontmatterStart + idx + len(closeSeq)
	return content[frontmatterStart:frontmatterEnd], content[bodyStart:], true, style, nil
}

// Join reassembles a document from raw front matter and body.
//
// If had is false, Join returns body as-is.
func Join(frontmatter []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	open := []byte("---" + nl)
	closing := []byte("---" + nl)

	out := make([]byte, 0, len(open)+len(frontmatter)+len(closing)+len(body))
	out = append(out, open...)
	out = append(out, frontmatter...)
	out = append(out, closing...)
	out = append(out, body...)
	return out
}

// ErrMissingClosingDelimiter indicates the document started with a front
// matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	hasTrailingNewline := len(content) > 0 && (content[len(content)-1] == '\n')

	return Style{
		Newline:            newline,
		HasTrailingNewline: hasTrailingNewline,
	}
}
