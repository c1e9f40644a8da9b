package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/grdesk/cmd/grdesk/commands"
	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
	"git.home.luguber.info/inful/grdesk/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	ctx := kong.Parse(cli,
		kong.Name("grdesk"),
		kong.Description("Goods-receipt desk: dynamically extensible state container service"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := ctx.Run(global, cli); err != nil {
		adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger)
		os.Exit(adapter.Handle(err))
	}
}
