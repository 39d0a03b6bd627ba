package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInjectReloadScriptBeforeBodyClose(t *testing.T) {
	doc := "<!doctype html>\n<html><body><p>hi</p></body></html>"

	out := string(InjectReloadScript([]byte(doc), false))

	require.Contains(t, out, "/__rendar_version")
	require.True(t, strings.HasSuffix(out, "</body></html>"))
	require.Greater(t, strings.Index(out, "/__rendar_version"), strings.Index(out, "<p>hi</p>"))
	require.Equal(t, 1, strings.Count(out, "<p>hi</p>"))
}

func TestInjectReloadScriptHeartbeatToggle(t *testing.T) {
	doc := []byte("<html><body></body></html>")

	plain := string(InjectReloadScript(doc, false))
	require.Contains(t, plain, "/__rendar_version")
	require.NotContains(t, plain, "/__rendar_heartbeat")

	withBeat := string(InjectReloadScript(doc, true))
	require.Contains(t, withBeat, "/__rendar_version")
	require.Contains(t, withBeat, "/__rendar_heartbeat")
}

func TestInjectReloadScriptAppendsWithoutBodyClose(t *testing.T) {
	doc := "<p>fragment</p>"

	out := string(InjectReloadScript([]byte(doc), false))

	require.True(t, strings.HasPrefix(out, doc))
	require.Contains(t, out, "/__rendar_version")
}

func TestBodyCloseOffsetPicksLastClose(t *testing.T) {
	doc := "<body>first</body><body>second</body>"

	off := bodyCloseOffset([]byte(doc))

	require.Equal(t, strings.LastIndex(doc, "</body>"), off)
}

func TestBodyCloseOffsetIgnoresScriptText(t *testing.T) {
	// The "</body>" inside the script element is character data, not a tag.
	// A plain LastIndex would pick it and corrupt the document.
	doc := `<body><p>x</p></body><script>"</body>"</script>`

	off := bodyCloseOffset([]byte(doc))

	require.Equal(t, strings.Index(doc, "</body>"), off)
}

func TestBodyCloseOffsetUppercase(t *testing.T) {
	doc := "<BODY>text</BODY>"

	off := bodyCloseOffset([]byte(doc))

	require.Equal(t, strings.Index(doc, "</BODY>"), off)
}

func TestBodyCloseOffsetNone(t *testing.T) {
	require.Equal(t, -1, bodyCloseOffset([]byte("<p>no body here</p>")))
}
