package preview

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rendar/internal/buildlog"
	"git.home.luguber.info/inful/rendar/internal/site"
)

func compileExcludes(t *testing.T, patterns ...string) *site.Excludes {
	t.Helper()
	ex, err := site.CompileExcludes(patterns)
	require.NoError(t, err)
	return ex
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// newTestServer builds files into a scratch output and exposes the routes
// over httptest. The Options hook runs after Input and Output are set.
func newTestServer(t *testing.T, files map[string]string, tweak func(*Options)) (*Server, *httptest.Server) {
	t.Helper()
	opts := Options{Input: t.TempDir(), Output: t.TempDir()}
	writeFiles(t, opts.Input, files)
	if tweak != nil {
		tweak(&opts)
	}
	s, err := New(opts)
	require.NoError(t, err)
	_, err = s.runBuild(context.Background(), buildlog.TriggerInitial)
	require.NoError(t, err)
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(body)
}

func TestVersionEndpoint(t *testing.T) {
	s, ts := newTestServer(t, map[string]string{"index.md": "# Home"}, nil)

	resp, body := get(t, ts.URL+VersionPath)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "1", body)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	s.version.Add(1)
	_, body = get(t, ts.URL+VersionPath)
	require.Equal(t, "2", body)

	resp, err := http.Post(ts.URL+VersionPath, "text/plain", nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHeartbeatEndpoint(t *testing.T) {
	s, ts := newTestServer(t, map[string]string{"index.md": "# Home"}, nil)

	stale := time.Now().Add(-time.Hour).UnixMilli()
	s.lastSeen.Store(stale)

	resp, err := http.Post(ts.URL+HeartbeatPath, "", nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Greater(t, s.lastSeen.Load(), stale)

	resp, _ = get(t, ts.URL+HeartbeatPath)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+HeartbeatPath, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	s, ts := newTestServer(t, map[string]string{"index.md": "# Home"}, nil)

	resp, body := get(t, ts.URL+StatusPath)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var status statusResponse
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	assert.Equal(t, uint64(1), status.Version)
	assert.Equal(t, s.opts.Output, status.Output)
	require.NotNil(t, status.LastBuild)
	assert.Equal(t, "success", status.LastBuild.Outcome)
	assert.Equal(t, buildlog.TriggerInitial, status.LastBuild.Trigger)
	assert.Equal(t, 1, status.LastBuild.Pages)
}

func TestStatusEndpointRecentBuilds(t *testing.T) {
	store, err := buildlog.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	_, ts := newTestServer(t, map[string]string{"index.md": "# Home"}, func(o *Options) {
		o.Log = store
	})

	_, body := get(t, ts.URL+StatusPath)
	var status statusResponse
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	require.Len(t, status.RecentBuilds, 1)
	assert.Equal(t, status.LastBuild.ID, status.RecentBuilds[0].ID)
}

func TestStaticServesInjectedHTML(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{"index.md": "# Home"}, nil)

	resp, body := get(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `<h1 id="home">Home</h1>`)
	require.Contains(t, body, "/__rendar_version")
	require.NotContains(t, body, "/__rendar_heartbeat")
}

func TestStaticInjectsHeartbeatWhenAutoExit(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{"index.md": "# Home"}, func(o *Options) {
		o.IdleTimeout = time.Minute
	})

	_, body := get(t, ts.URL+"/index.html")
	require.Contains(t, body, "/__rendar_version")
	require.Contains(t, body, "/__rendar_heartbeat")
}

func TestStaticDirectoryRedirect(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{"docs/index.md": "# Docs"}, nil)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(ts.URL + "/docs")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	require.Equal(t, "/docs/", resp.Header.Get("Location"))

	_, body := get(t, ts.URL+"/docs/")
	require.Contains(t, body, "Docs")
}

func TestStaticAssetServedVerbatim(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{
		"index.md": "# Home",
		"logo.png": "\x89PNG fake bytes",
	}, nil)

	resp, body := get(t, ts.URL+"/logo.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "\x89PNG fake bytes", body)
	require.NotContains(t, body, "__rendar")
}

func TestStaticMissingFile(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{"index.md": "# Home"}, nil)

	resp, _ := get(t, ts.URL+"/nope.html")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpointGated(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{"index.md": "# Home"}, nil)
	resp, _ := get(t, ts.URL+MetricsPath)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, ts = newTestServer(t, map[string]string{"index.md": "# Home"}, func(o *Options) {
		o.MetricsHTTP = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("metrics here"))
		})
	})
	resp, body := get(t, ts.URL+MetricsPath)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "metrics here", body)
}

func TestStartURL(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{
		"index.md":      "# Home",
		"docs/guide.md": "# Guide",
	})

	s, err := New(Options{
		Input:     in,
		Output:    t.TempDir(),
		StartPage: filepath.Join(in, "docs", "guide.md"),
	})
	require.NoError(t, err)
	res, err := s.runBuild(context.Background(), buildlog.TriggerInitial)
	require.NoError(t, err)

	require.Equal(t, "http://127.0.0.1:3100/docs/guide.html", s.startURL(res.Map, 3100))

	s.opts.StartPage = ""
	require.Equal(t, "http://127.0.0.1:3100/", s.startURL(res.Map, 3100))
}

func TestNewRejectsExcludedStartPage(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{"drafts/wip.md": "# WIP"})
	excludes := compileExcludes(t, "drafts/**")

	_, err := New(Options{
		Input:     in,
		Output:    t.TempDir(),
		Excludes:  excludes,
		StartPage: filepath.Join(in, "drafts", "wip.md"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "excluded by pattern")
}

func TestBindListenerExplicitPortBusy(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })
	port := busy.Addr().(*net.TCPAddr).Port

	_, _, err = bindListener(port)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bind preview server on port")
}

func TestBindListenerDefaultFallsBack(t *testing.T) {
	// Occupy the default port when possible so bindListener must fall back.
	occupied, occErr := net.Listen("tcp", "127.0.0.1:3000")
	if occErr == nil {
		t.Cleanup(func() { _ = occupied.Close() })
	}

	ln, port, err := bindListener(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	require.NotZero(t, port)
	if occErr == nil {
		require.NotEqual(t, DefaultPort, port)
	}
}
