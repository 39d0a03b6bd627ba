package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/rendar/internal/config"
	"git.home.luguber.info/inful/rendar/internal/gitmeta"
	"git.home.luguber.info/inful/rendar/internal/logfields"
	"git.home.luguber.info/inful/rendar/internal/site"
	"git.home.luguber.info/inful/rendar/internal/template"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (rendar.toml or rendar.yaml)."`
	Verbose bool             `short:"v" help:"Enable verbose logging."`
	Version kong.VersionFlag `name:"version" help:"Show version and exit."`

	Build   BuildCmd   `cmd:"" help:"Render Markdown files into a static HTML output directory."`
	Check   CheckCmd   `cmd:"" help:"Check for broken links and other warnings without writing output."`
	Preview PreviewCmd `cmd:"" help:"Start a local preview server with live reload."`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// resolveInput picks the input root: flag, then config, then the working
// directory. The result is absolute.
func resolveInput(flag string, cfg *config.Config) (string, error) {
	p := flag
	if p == "" {
		p = cfg.Input
	}
	if p == "" {
		p = "."
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve input path %s: %w", p, err)
	}
	return abs, nil
}

// resolveTemplate loads the template named by flag or config, else the
// built-in one. The returned path is "" for the built-in template.
func resolveTemplate(flag string, cfg *config.Config) (*template.Template, string, error) {
	path := flag
	if path == "" {
		path = cfg.Template
	}
	if path == "" {
		return template.BuiltIn(), "", nil
	}
	tpl, err := template.FromPath(path)
	if err != nil {
		return nil, "", err
	}
	return tpl, path, nil
}

// resolveExcludes compiles the exclude globs. Patterns given on the command
// line replace the configured list entirely.
func resolveExcludes(flags []string, cfg *config.Config) (*site.Excludes, error) {
	patterns := flags
	if len(patterns) == 0 {
		patterns = cfg.Exclude
	}
	return site.CompileExcludes(patterns)
}

// resolveCSVMaxRows maps the optional flag onto the builder's convention:
// unset defers to the config, explicit zero lifts the cap.
func resolveCSVMaxRows(flag *int, cfg *config.Config) int {
	if flag == nil {
		return cfg.CSVRowCap()
	}
	if *flag == 0 {
		return -1
	}
	return *flag
}

// discoverRepo looks up git metadata when edit links are enabled. Discovery
// failures only disable the links.
func discoverRepo(cfg *config.Config, input string) *gitmeta.RepoInfo {
	if !cfg.Site.EditLinks {
		return nil
	}
	repo, err := gitmeta.Discover(input)
	if err != nil {
		slog.Debug("Edit links disabled, repository discovery failed", logfields.Error(err))
		return nil
	}
	return repo
}
