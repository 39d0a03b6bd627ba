package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/rendar/cmd/rendar/commands"
	"git.home.luguber.info/inful/rendar/internal/version"
)

func main() {
	cli := commands.CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("rendar"),
		kong.Description("Render a Markdown tree into a static HTML site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	err := ctx.Run(&commands.Global{}, &cli)
	ctx.FatalIfErrorf(err)
}
