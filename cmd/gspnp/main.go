package main

import (
	"context"
	"flag"
	"gspnp/internal/cli"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"os"
	"strings"

	"golang.org/x/term"
)

func main() {
	global.CmdOpts = cli.DefineOptions()

	args := os.Args
	commandFlags := flag.NewFlagSet(args[0], flag.ExitOnError)
	cli.SetGlobalArguments(commandFlags)
	commandFlags.Usage = func() {
		cli.PrintHelpMenu(os.Stdout, commandFlags, cli.RootCLICommand, global.CmdOpts)
	}

	// Bare invocation keeps the classic "[-v N] [url]" form
	command := "listen"
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		if _, known := global.CmdOpts.ChildCommands[args[1]]; known {
			command = args[1]
			args = args[2:]
		} else {
			args = args[1:]
		}
	} else if len(args) > 1 && (args[1] == "-h" || args[1] == "--help") {
		commandFlags.Parse(args[1:])
		return
	} else {
		args = args[1:]
	}

	// Setting global logging
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := logctx.NewLogger("global", global.VerbosityStandard, ctx.Done()) // New logger tied to global
	ctx = logctx.WithLogger(ctx, logger)                                       // Add logger to global ctx

	// journald stamps lines itself
	_, underJournal := os.LookupEnv("JOURNAL_STREAM")
	logger.OmitTimestamps(underJournal && !term.IsTerminal(int(os.Stderr.Fd())))
	logctx.StartWatcher(logger, os.Stderr)

	var err error
	switch command {
	case "listen":
		err = cli.ListenMode(ctx, global.CmdOpts, command, args)
	case "probe":
		err = cli.ProbeMode(ctx, global.CmdOpts, command, args)
	case "version":
		cli.PrintVersion(os.Stdout, args)
	}
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityNone, global.ErrorLog, "%v\n", err)
	}

	// Finish up any writes for global logger
	cancel()
	logger.Wake()
	logger.Wait()

	if err != nil {
		os.Exit(1)
	}
}
