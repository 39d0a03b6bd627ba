package preview

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/rendar/internal/logfields"
	"git.home.luguber.info/inful/rendar/internal/site"
)

const (
	// quietWindow is how long the event stream must stay silent before a
	// burst counts as over.
	quietWindow = 200 * time.Millisecond

	// maxCoalesce caps one burst so a steady stream of events (a large
	// generated tree, a sync tool) cannot starve rebuilds forever.
	maxCoalesce = 2 * time.Second

	rescanInterval = 30 * time.Second
)

func (s *Server) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("initialize file watcher: %w", err)
	}
	if err := s.addWatchDirs(watcher); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

// addWatchDirs registers the source root and every directory below it,
// reusing the site walk so the watcher honors the same exclude and hidden
// rules as the build. Individual registration failures are logged, not
// fatal; the periodic rescan retries them.
func (s *Server) addWatchDirs(watcher *fsnotify.Watcher) error {
	if err := watcher.Add(s.opts.Input); err != nil {
		return fmt.Errorf("watch %s: %w", s.opts.Input, err)
	}
	cfg := site.WalkConfig{Root: s.opts.Input, Output: s.opts.Output, Excludes: s.opts.Excludes}
	return site.WalkTree(cfg, func(rel, abs string, d fs.DirEntry) error {
		if d.IsDir() {
			if err := watcher.Add(abs); err != nil {
				slog.Warn("Watch add failed", logfields.Path(abs), logfields.Error(err))
			}
		}
		return nil
	})
}

// watchLoop turns raw filesystem events into serialized rebuilds: the first
// relevant event opens a coalescing window, the window drains the burst, then
// exactly one rebuild runs before the loop looks at the stream again. Events
// arriving during a rebuild queue up and start the next cycle.
func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !s.handleEvent(watcher, ev) {
				continue
			}
			s.drainEvents(ctx, watcher)
			s.rebuild(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// drainEvents absorbs the burst that follows a first change. Editors and
// generators touch many files per save; returning after quietWindow of
// silence, or once the burst has lasted maxCoalesce in total, bounds that
// to one rebuild.
func (s *Server) drainEvents(ctx context.Context, watcher *fsnotify.Watcher) {
	start := time.Now()
	quiet := time.NewTimer(quietWindow)
	defer quiet.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(watcher, ev)
			if time.Since(start) > maxCoalesce {
				return
			}
			quiet.Reset(quietWindow)
		case <-quiet.C:
			return
		}
	}
}

// handleEvent reports whether ev should trigger a rebuild. Newly created
// directories are registered with the watcher either way, before any files
// land in them.
func (s *Server) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			addDirTree(watcher, ev.Name)
		}
	}
	if s.ignorePath(ev.Name) {
		return false
	}
	slog.Debug("File change detected",
		logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

// ignorePath filters events the build would not see anyway: hidden and
// editor scratch files, plus anything matching an exclude pattern.
func (s *Server) ignorePath(name string) bool {
	if ignoredBase(filepath.Base(name)) {
		return true
	}
	if rel, err := filepath.Rel(s.opts.Input, name); err == nil {
		if s.opts.Excludes.Match(filepath.ToSlash(rel)) {
			return true
		}
	}
	return false
}

func ignoredBase(base string) bool {
	if strings.HasPrefix(base, ".") {
		return true
	}
	// Editor temp and swap files.
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) {
		return true
	}
	return base == "Thumbs.db"
}

// addDirTree registers a directory subtree created after the initial walk,
// before the rescan job would catch it.
func addDirTree(watcher *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(filepath.Base(p), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			slog.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

// startScheduler runs the periodic jobs: a watch rescan that re-registers
// directories fsnotify may have missed, and the idle check when auto exit
// is enabled.
func (s *Server) startScheduler(watcher *fsnotify.Watcher) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(rescanInterval),
		gocron.NewTask(s.rescanWatches, watcher),
		gocron.WithName("watch-rescan"),
	); err != nil {
		return nil, fmt.Errorf("schedule watch rescan: %w", err)
	}
	if s.opts.IdleTimeout > 0 {
		if _, err := sched.NewJob(
			gocron.DurationJob(time.Second),
			gocron.NewTask(s.checkIdle),
			gocron.WithName("idle-check"),
		); err != nil {
			return nil, fmt.Errorf("schedule idle check: %w", err)
		}
	}
	sched.Start()
	return sched, nil
}

func (s *Server) rescanWatches(watcher *fsnotify.Watcher) {
	if err := s.addWatchDirs(watcher); err != nil {
		slog.Warn("Watch rescan failed", logfields.Error(err))
	}
}
