package preview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/rendar/internal/buildlog"
	"git.home.luguber.info/inful/rendar/internal/logfields"
)

// Reserved endpoint paths. Everything else is static file service over the
// output directory.
const (
	VersionPath   = "/__rendar_version"
	HeartbeatPath = "/__rendar_heartbeat"
	StatusPath    = "/__rendar_status"
	MetricsPath   = "/__rendar_metrics"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(VersionPath, s.handleVersion)
	mux.HandleFunc(HeartbeatPath, s.handleHeartbeat)
	mux.HandleFunc(StatusPath, s.handleStatus)
	if s.opts.MetricsHTTP != nil {
		mux.Handle(MetricsPath, s.opts.MetricsHTTP)
	}
	mux.HandleFunc("/", s.handleStatic)
	return mux
}

// handleVersion serves the counter as plain text. The injected script polls
// it and reloads the page when the value moves.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%d", s.version.Load())
}

// handleHeartbeat refreshes the last-seen instant the idle checker reads.
// Open tabs post here once a second.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.lastSeen.Store(time.Now().UnixMilli())
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	Version       uint64            `json:"version"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	Output        string            `json:"output"`
	LastBuild     *buildlog.Record  `json:"last_build,omitempty"`
	RecentBuilds  []buildlog.Record `json:"recent_builds,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	recent, err := s.opts.Log.Recent(r.Context(), 20)
	if err != nil {
		slog.Warn("Build log read failed", logfields.Error(err))
	}
	resp := statusResponse{
		Version:       s.version.Load(),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		Output:        s.opts.Output,
		LastBuild:     s.status.get(),
		RecentBuilds:  recent,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode status response", logfields.Error(err))
	}
}

// handleStatic serves the output directory. Directory paths get their
// index.html, and HTML documents get the reload script injected on the way
// out so the build output itself stays clean.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	upath := path.Clean("/" + r.URL.Path)
	name := filepath.Join(s.opts.Output, filepath.FromSlash(strings.TrimPrefix(upath, "/")))

	st, err := os.Stat(name)
	if err == nil && st.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			to := upath + "/"
			if q := r.URL.RawQuery; q != "" {
				to += "?" + q
			}
			http.Redirect(w, r, to, http.StatusMovedPermanently)
			return
		}
		name = filepath.Join(name, "index.html")
		st, err = os.Stat(name)
	}
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if !strings.HasSuffix(name, ".html") {
		http.ServeFile(w, r, name)
		return
	}
	doc, err := os.ReadFile(name)
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	doc = InjectReloadScript(doc, s.opts.IdleTimeout > 0)
	http.ServeContent(w, r, name, st.ModTime(), bytes.NewReader(doc))
}

// bindListener binds 127.0.0.1 on the preferred port. Only the default port
// may fall back to an ephemeral one; any other port failing to bind is an
// error the caller needs to see.
func bindListener(preferred int) (net.Listener, int, error) {
	if preferred == 0 {
		preferred = DefaultPort
	}
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", preferred))
	if err != nil {
		if preferred != DefaultPort {
			return nil, 0, fmt.Errorf("bind preview server on port %d: %w", preferred, err)
		}
		ln, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, 0, fmt.Errorf("bind preview server on port %d and fallback: %w", preferred, err)
		}
		fmt.Fprintf(os.Stderr, "Port %d is in use, picked a random available port.\n", preferred)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	return ln, port, nil
}
