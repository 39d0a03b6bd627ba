package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/rendar/internal/buildlog"
	"git.home.luguber.info/inful/rendar/internal/config"
	"git.home.luguber.info/inful/rendar/internal/logfields"
	"git.home.luguber.info/inful/rendar/internal/metrics"
	"git.home.luguber.info/inful/rendar/internal/notify"
	"git.home.luguber.info/inful/rendar/internal/preview"
)

// PreviewCmd serves the rendered site locally, rebuilding on change.
type PreviewCmd struct {
	Input       string   `short:"i" help:"Input directory to render (defaults to current directory)."`
	Template    string   `help:"Optional template file path."`
	StartOn     string   `name:"start-on" help:"Start on a specific page or directory."`
	Open        bool     `xor:"browser" help:"Open the browser after starting the server."`
	NoOpen      bool     `name:"no-open" xor:"browser" help:"Do not open the browser after starting the server."`
	Daemon      bool     `help:"Run the preview server in the background and print PID/URL."`
	DaemonChild bool     `name:"daemon-child" hidden:"" help:"Internal flag used for daemon child processes."`
	AutoExit    *int     `name:"auto-exit" placeholder:"SECONDS" help:"Exit after no active preview pages for N seconds."`
	Port        *int     `help:"Port for the preview server."`
	Exclude     []string `placeholder:"PATTERN" help:"Glob patterns to exclude from rendering (relative to input)."`
	CSVMaxRows  *int     `name:"csv-max-rows" placeholder:"ROWS" help:"Maximum CSV rows to render (default 1000, 0 = unlimited)."`
}

func (p *PreviewCmd) Run(_ *Global, root *CLI) error {
	if p.Daemon && p.DaemonChild {
		return errors.New("Cannot use --daemon and --daemon-child together")
	}
	if p.Daemon {
		return preview.SpawnDaemon()
	}

	cfg, err := config.Resolve(root.Config, p.Input)
	if err != nil {
		return err
	}
	inputOverride := p.Input
	if inputOverride == "" {
		inputOverride = cfg.Input
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	paths, err := preview.ResolveStartPaths(cwd, inputOverride, p.StartOn)
	if err != nil {
		return err
	}
	tpl, tplPath, err := resolveTemplate(p.Template, cfg)
	if err != nil {
		return err
	}
	excludes, err := resolveExcludes(p.Exclude, cfg)
	if err != nil {
		return err
	}

	opts := preview.Options{
		Input:        paths.InputRoot,
		Template:     tpl,
		TemplatePath: tplPath,
		Excludes:     excludes,
		CSVMaxRows:   resolveCSVMaxRows(p.CSVMaxRows, cfg),
		Port:         resolvePort(p.Port, cfg),
		StartPage:    paths.StartPage,
		Open:         resolveOpen(p.Open, p.NoOpen, p.DaemonChild, cfg),
		DaemonChild:  p.DaemonChild,
		IdleTimeout:  resolveIdleTimeout(p.AutoExit, cfg),
		Repo:         discoverRepo(cfg, paths.InputRoot),
	}

	if cfg.Preview.Metrics {
		reg := prometheus.NewRegistry()
		opts.Metrics = metrics.NewPrometheusRecorder(reg)
		opts.MetricsHTTP = metrics.HTTPHandler(reg)
	}
	if cfg.Preview.BuildLog != "" {
		store, err := buildlog.NewSQLiteStore(cfg.Preview.BuildLog)
		if err != nil {
			return fmt.Errorf("open build log: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("Build log close failed", logfields.Error(err))
			}
		}()
		opts.Log = store
	}
	if cfg.Notify.Enabled {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			return fmt.Errorf("connect build event publisher: %w", err)
		}
		defer func() {
			if err := pub.Close(); err != nil {
				slog.Warn("Build event publisher close failed", logfields.Error(err))
			}
		}()
		opts.Notify = pub
	}

	srv, err := preview.New(opts)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return srv.Run(ctx)
}

// resolvePort picks the preview port: flag, then config. The server applies
// its own default for zero.
func resolvePort(flag *int, cfg *config.Config) int {
	if flag != nil {
		return *flag
	}
	return cfg.Preview.Port
}

// resolveOpen decides whether to launch a browser. --no-open always wins;
// --open and daemon children force it; otherwise the config decides.
func resolveOpen(open, noOpen, daemonChild bool, cfg *config.Config) bool {
	if noOpen {
		return false
	}
	if open || daemonChild {
		return true
	}
	return cfg.Preview.Open
}

// resolveIdleTimeout maps --auto-exit onto a duration, deferring to the
// config when the flag is absent. Zero or negative disables auto-exit.
func resolveIdleTimeout(flag *int, cfg *config.Config) time.Duration {
	if flag == nil {
		return cfg.IdleTimeout()
	}
	if *flag <= 0 {
		return 0
	}
	return time.Duration(*flag) * time.Second
}
