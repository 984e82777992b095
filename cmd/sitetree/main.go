package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitetree/cmd/sitetree/commands"
	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
	"git.home.luguber.info/inful/sitetree/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("sitetree"),
		kong.Description("Publish a static site from a tree of page directories."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)
	err := ctx.Run(&commands.Global{Version: version.Version, Out: os.Stdout}, &cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
