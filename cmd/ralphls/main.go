package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ralph-lsp/ralph-lsp/internal/version"
)

type versionFlag bool

// BeforeApply prints the server version and exits, mirroring the teacher's
// own eager versionFlag.BeforeApply hook.
func (v versionFlag) BeforeApply(ctx *kong.Context) error { //nolint:unparam
	fmt.Fprintln(ctx.Stdout, "ralphls version: "+version.GetVersion())
	ctx.Exit(0)
	return nil
}

type cli struct {
	Version versionFlag `short:"v" name:"version" help:"Print version and exit."`

	Serve serveCmd `cmd:"" help:"Start the ralphls language server on stdio."`
}

func main() {
	c := cli{}
	parser := kong.Must(&c,
		kong.Name("ralphls"),
		kong.Description("A language server for the ralph contract language."),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true, NoExpandSubcommands: true}),
	)

	if len(os.Args) == 1 {
		_, err := parser.Parse([]string{"--help"})
		parser.FatalIfErrorf(err)
		return
	}

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run())
}
