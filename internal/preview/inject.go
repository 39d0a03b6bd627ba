package preview

import (
	"bytes"

	"golang.org/x/net/html"
)

// liveReloadScript polls the version endpoint once a second and reloads the
// page when the counter advances. The first response only seeds the
// comparison value so a freshly opened tab never reloads itself.
const liveReloadScript = `<script>
(function () {
  const endpoint = "/__rendar_version";
  let last = null;
  async function poll() {
    try {
      const res = await fetch(endpoint, { cache: "no-store" });
      const text = await res.text();
      if (last === null) {
        last = text;
      } else if (last !== text) {
        location.reload();
        return;
      }
    } catch (_) {}
    setTimeout(poll, 1000);
  }
  poll();
})();
</script>
`

// heartbeatScript keeps the idle checker fed while a tab stays open.
const heartbeatScript = `<script>
(function () {
  function beat() {
    fetch("/__rendar_heartbeat", { method: "POST", cache: "no-store" }).catch(function () {});
    setTimeout(beat, 1000);
  }
  beat();
})();
</script>
`

// InjectReloadScript inserts the reload poller, and the heartbeat sender
// when auto exit is on, before the document's last </body> tag. Documents
// without one get the scripts appended instead.
func InjectReloadScript(doc []byte, heartbeat bool) []byte {
	script := []byte(liveReloadScript)
	if heartbeat {
		script = append(script, heartbeatScript...)
	}
	at := bodyCloseOffset(doc)
	if at < 0 {
		return append(append([]byte{}, doc...), script...)
	}
	out := make([]byte, 0, len(doc)+len(script))
	out = append(out, doc[:at]...)
	out = append(out, script...)
	out = append(out, doc[at:]...)
	return out
}

// bodyCloseOffset returns the byte offset of the last </body> end tag, -1
// when the document has none. Token raw slices tile the input exactly, which
// is what makes the offset arithmetic valid.
func bodyCloseOffset(doc []byte) int {
	z := html.NewTokenizer(bytes.NewReader(doc))
	offset, last := 0, -1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.EndTagToken {
			if name, _ := z.TagName(); string(name) == "body" {
				last = offset
			}
		}
		offset += len(z.Raw())
	}
	return last
}
