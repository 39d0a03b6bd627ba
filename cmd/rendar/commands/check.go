package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/rendar/internal/build"
	"git.home.luguber.info/inful/rendar/internal/config"
)

// CheckCmd scans the tree without writing output and fails when advisory
// warnings exist.
type CheckCmd struct {
	Input   string   `short:"i" help:"Input directory to scan (defaults to current directory)."`
	Exclude []string `placeholder:"PATTERN" help:"Glob patterns to exclude from rendering (relative to input)."`
}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Resolve(root.Config, c.Input)
	if err != nil {
		return err
	}
	input, err := resolveInput(c.Input, cfg)
	if err != nil {
		return err
	}
	excludes, err := resolveExcludes(c.Exclude, cfg)
	if err != nil {
		return err
	}

	builder := &build.Builder{
		Input:      input,
		Excludes:   excludes,
		CSVMaxRows: cfg.CSVRowCap(),
	}
	res, err := builder.Check(context.Background())
	if err != nil {
		return err
	}
	// Warnings were logged as they were found; the count is the exit signal.
	if n := res.Warnings(); n > 0 {
		return fmt.Errorf("check found %d warnings", n)
	}
	return nil
}
