// Package preview serves a freshly built site over HTTP while watching the
// source tree for changes. Each change burst triggers one serialized rebuild;
// successful rebuilds that alter the source fingerprint advance a version
// counter which served pages poll to reload themselves.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/rendar/internal/build"
	"git.home.luguber.info/inful/rendar/internal/buildlog"
	"git.home.luguber.info/inful/rendar/internal/gitmeta"
	"git.home.luguber.info/inful/rendar/internal/logfields"
	"git.home.luguber.info/inful/rendar/internal/metrics"
	"git.home.luguber.info/inful/rendar/internal/notify"
	"git.home.luguber.info/inful/rendar/internal/site"
	"git.home.luguber.info/inful/rendar/internal/template"
)

// DefaultPort is used when neither the CLI nor the config names one. Binding
// it may fall back to an ephemeral port; any other port fails hard when
// taken.
const DefaultPort = 3000

const shutdownGrace = 5 * time.Second

// Options carries everything a preview session needs. Nil collaborators get
// no-op defaults.
type Options struct {
	Input        string // source root
	Output       string // empty means a scratch directory, removed on shutdown
	Template     *template.Template
	TemplatePath string
	Excludes     *site.Excludes
	CSVMaxRows   int
	Port         int    // preferred port, DefaultPort when 0
	StartPage    string // absolute path of the page to announce, "" for the site root
	Open         bool
	DaemonChild  bool
	IdleTimeout  time.Duration // 0 disables auto exit
	Repo         *gitmeta.RepoInfo
	Metrics      metrics.Recorder
	MetricsHTTP  http.Handler // mounted under MetricsPath when non-nil
	Log          buildlog.Store
	Notify       notify.Publisher
}

// Server is one preview session: builder, watcher, scheduler jobs, and the
// HTTP layer share it.
type Server struct {
	opts       Options
	builder    *build.Builder
	ownsOutput bool
	startedAt  time.Time

	version  atomic.Uint64
	lastSeen atomic.Int64 // unix millis of the last heartbeat

	status    lastBuild
	lastPrint string // fingerprint of the last good build, watch loop only

	stop     context.CancelFunc
	idleOnce sync.Once
}

// New validates opts and prepares a session. The output directory is created
// here so the initial build in Run has somewhere to land.
func New(opts Options) (*Server, error) {
	input, err := filepath.Abs(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("resolve input root: %w", err)
	}
	opts.Input = input

	if opts.StartPage != "" {
		if rel, err := filepath.Rel(opts.Input, opts.StartPage); err == nil &&
			opts.Excludes.Match(filepath.ToSlash(rel)) {
			return nil, fmt.Errorf("Start page %s is excluded by pattern", opts.StartPage)
		}
	}

	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	if opts.Log == nil {
		opts.Log = buildlog.NoopStore{}
	}
	if opts.Notify == nil {
		opts.Notify = notify.NoopPublisher{}
	}

	ownsOutput := false
	if opts.Output == "" {
		dir, err := os.MkdirTemp("", "rendar-preview-*")
		if err != nil {
			return nil, fmt.Errorf("create preview directory: %w", err)
		}
		opts.Output = dir
		ownsOutput = true
	}

	s := &Server{
		opts:       opts,
		ownsOutput: ownsOutput,
		startedAt:  time.Now(),
		builder: &build.Builder{
			Input:        opts.Input,
			Output:       opts.Output,
			Template:     opts.Template,
			TemplatePath: opts.TemplatePath,
			Excludes:     opts.Excludes,
			CSVMaxRows:   opts.CSVMaxRows,
			Repo:         opts.Repo,
			Metrics:      opts.Metrics,
		},
	}
	s.version.Store(1)
	s.lastSeen.Store(time.Now().UnixMilli())
	return s, nil
}

// Output returns the directory being served.
func (s *Server) Output() string { return s.opts.Output }

// Run builds once, announces the URL, and serves until ctx is canceled, the
// idle timeout expires, or the HTTP layer fails. The initial build is fatal
// when it errors; later rebuilds only log.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.stop = cancel
	if s.ownsOutput {
		defer s.cleanupOutput()
	}

	res, err := s.runBuild(ctx, buildlog.TriggerInitial)
	if err != nil {
		return fmt.Errorf("initial preview build: %w", err)
	}
	s.lastPrint = res.Fingerprint

	ln, port, err := bindListener(s.opts.Port)
	if err != nil {
		return err
	}
	url := s.startURL(res.Map, port)
	s.announce(url)
	if s.opts.Open {
		OpenBrowser(url)
	}

	watcher, err := s.newWatcher()
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() { _ = watcher.Close() }()
	go s.watchLoop(ctx, watcher)

	sched, err := s.startScheduler(watcher)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() { _ = sched.Shutdown() }()

	srv := &http.Server{
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	slog.Info("Preview server listening", logfields.Port(port), logfields.URL(url))

	select {
	case err := <-serveErr:
		return fmt.Errorf("preview server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down preview server")
	shutdownCtx, release := context.WithTimeout(context.Background(), shutdownGrace)
	defer release()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Preview server shutdown error", logfields.Error(err))
	}
	return nil
}

// runBuild executes one build pass and records its outcome in the status
// snapshot, the build log, and the event stream. The caller decides whether
// an error is fatal.
func (s *Server) runBuild(ctx context.Context, trigger string) (*build.Result, error) {
	s.opts.Metrics.IncRebuild(trigger)
	start := time.Now()
	res, err := s.builder.Build(ctx)

	rec := buildlog.Record{Trigger: trigger, StartedAt: start}
	if err != nil {
		rec.ID = uuid.NewString()
		rec.Duration = time.Since(start)
		rec.Outcome = string(metrics.OutcomeFailed)
		rec.Error = err.Error()
	} else {
		rec.ID = res.BuildID
		rec.Duration = res.Duration
		rec.Outcome = string(metrics.OutcomeSuccess)
		if res.Warnings() > 0 {
			rec.Outcome = string(metrics.OutcomeWarning)
		}
		rec.Pages = res.Pages
		rec.Issues = len(res.Issues)
		rec.Fingerprint = res.Fingerprint
	}

	s.status.set(rec)
	if logErr := s.opts.Log.Append(ctx, rec); logErr != nil {
		slog.Warn("Build log append failed", logfields.Error(logErr))
	}
	s.publishEvent(rec)
	return res, err
}

// rebuild handles one debounced change burst. A failed rebuild keeps the
// version untouched so clients hold on to the last good build, and an
// unchanged fingerprint skips the reload signal entirely.
func (s *Server) rebuild(ctx context.Context) {
	slog.Info("Change detected, rebuilding site")
	res, err := s.runBuild(ctx, buildlog.TriggerWatch)
	if err != nil {
		slog.Error("Preview rebuild failed", logfields.Error(err))
		return
	}
	if res.Fingerprint == s.lastPrint {
		slog.Debug("Source tree fingerprint unchanged, reload not signaled")
		return
	}
	s.lastPrint = res.Fingerprint
	slog.Debug("Preview version advanced", logfields.Version(s.version.Add(1)))
}

func (s *Server) publishEvent(rec buildlog.Record) {
	ev := notify.Event{
		BuildID:     rec.ID,
		Trigger:     rec.Trigger,
		Outcome:     rec.Outcome,
		Pages:       rec.Pages,
		Issues:      rec.Issues,
		DurationMS:  rec.Duration.Milliseconds(),
		Fingerprint: rec.Fingerprint,
		Error:       rec.Error,
	}
	if err := s.opts.Notify.Publish(ev); err != nil {
		slog.Warn("Build event publish failed", logfields.Error(err))
	}
}

// announce prints the machine-readable handoff lines in daemon-child mode,
// the human one otherwise. These go to stdout: the daemon parent scrapes
// them, logging stays on stderr.
func (s *Server) announce(url string) {
	if s.opts.DaemonChild {
		fmt.Printf("URL=%s\n", url)
		fmt.Printf("PID=%d\n", os.Getpid())
		return
	}
	fmt.Printf("Preview server running at %s\n", url)
}

// startURL resolves the announced URL from the start page's place in the
// site map, falling back to the site root.
func (s *Server) startURL(m *site.SiteMap, port int) string {
	base := fmt.Sprintf("http://127.0.0.1:%d/", port)
	if s.opts.StartPage == "" || m == nil {
		return base
	}
	rel, err := filepath.Rel(s.opts.Input, s.opts.StartPage)
	if err != nil {
		return base
	}
	if entry := m.Page(filepath.ToSlash(rel)); entry != nil {
		return base + entry.OutputPath
	}
	return base
}

func (s *Server) cleanupOutput() {
	if err := os.RemoveAll(s.opts.Output); err != nil {
		slog.Warn("Failed to remove preview directory",
			logfields.Output(s.opts.Output), logfields.Error(err))
		return
	}
	slog.Debug("Removed preview directory", logfields.Output(s.opts.Output))
}

// checkIdle runs every second while auto exit is enabled. The sync.Once makes
// expiry announce and cancel exactly once even though the job keeps firing
// until the scheduler stops.
func (s *Server) checkIdle() {
	idle := time.Since(time.UnixMilli(s.lastSeen.Load()))
	if idle < s.opts.IdleTimeout {
		return
	}
	s.idleOnce.Do(func() {
		slog.Info("No heartbeat within the idle timeout, shutting down",
			slog.Duration("idle", idle.Truncate(time.Second)))
		s.stop()
	})
}

// lastBuild remembers the most recent build outcome for the status endpoint,
// independent of whether a persistent build log is configured.
type lastBuild struct {
	mu  sync.RWMutex
	rec *buildlog.Record
}

func (lb *lastBuild) set(rec buildlog.Record) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.rec = &rec
}

func (lb *lastBuild) get() *buildlog.Record {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.rec
}
