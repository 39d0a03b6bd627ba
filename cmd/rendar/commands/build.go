package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/rendar/internal/build"
	"git.home.luguber.info/inful/rendar/internal/config"
)

// BuildCmd renders the source tree into a static output directory.
type BuildCmd struct {
	Out        string   `short:"o" help:"Output directory for generated HTML (default <input>/site)."`
	Input      string   `short:"i" help:"Input directory to render (defaults to current directory)."`
	Template   string   `help:"Optional template file path."`
	Exclude    []string `placeholder:"PATTERN" help:"Glob patterns to exclude from rendering (relative to input)."`
	CSVMaxRows *int     `name:"csv-max-rows" placeholder:"ROWS" help:"Maximum CSV rows to render (default 1000, 0 = unlimited)."`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Resolve(root.Config, b.Input)
	if err != nil {
		return err
	}
	input, err := resolveInput(b.Input, cfg)
	if err != nil {
		return err
	}
	tpl, tplPath, err := resolveTemplate(b.Template, cfg)
	if err != nil {
		return err
	}
	excludes, err := resolveExcludes(b.Exclude, cfg)
	if err != nil {
		return err
	}
	out, err := resolveOutput(b.Out, cfg, input)
	if err != nil {
		return err
	}

	builder := &build.Builder{
		Input:        input,
		Output:       out,
		Template:     tpl,
		TemplatePath: tplPath,
		Excludes:     excludes,
		CSVMaxRows:   resolveCSVMaxRows(b.CSVMaxRows, cfg),
		Repo:         discoverRepo(cfg, input),
	}
	if _, err := builder.Build(context.Background()); err != nil {
		return err
	}
	fmt.Printf("Rendered site to %s\n", out)
	return nil
}

// resolveOutput picks the output directory: flag, then config, then a site
// directory inside the input root. The walk skips the output tree, so the
// default cannot feed the build its own results.
func resolveOutput(flag string, cfg *config.Config, input string) (string, error) {
	out := flag
	if out == "" {
		out = cfg.Output
	}
	if out == "" {
		out = filepath.Join(input, "site")
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return "", fmt.Errorf("resolve output path %s: %w", out, err)
	}
	return abs, nil
}
