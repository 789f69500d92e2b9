package main

import (
	"github.com/alecthomas/kong"
)

type cli struct {
	Eval  evalCmd  `cmd:"" help:"Evaluate expressions and print their results."`
	Serve serveCmd `cmd:"" help:"Run the web application."`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("arith"),
		kong.Description("Integer arithmetic with + - * / and parentheses."),
		kong.HelpOptions{Compact: true, FlagsLast: true},
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
