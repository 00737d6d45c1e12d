package cli

import (
	"context"
	"flag"
	"fmt"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"gspnp/internal/probe"
	"os"
)

// Sends one canned beacon and reports what came back
func ProbeMode(ctx context.Context, cliOpts *global.CommandSet, commandname string, args []string) (err error) {
	var opts probe.Options
	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	commandFlags.StringVar(&opts.Bind, "b", "", "Local address to send from (ephemeral port when empty)")
	commandFlags.StringVar(&opts.Bind, "bind", "", "Local address to send from (ephemeral port when empty)")
	commandFlags.DurationVar(&opts.Timeout, "t", probe.DefaultTimeout, "How long to wait for replies")
	commandFlags.DurationVar(&opts.Timeout, "timeout", probe.DefaultTimeout, "How long to wait for replies")
	commandFlags.IntVar(&opts.TTL, "ttl", probe.DefaultTTL, "Multicast time to live")
	commandFlags.BoolVar(&opts.Loopback, "loopback", true, "Deliver multicast copy to responders on this host")

	commandFlags.Usage = func() {
		PrintHelpMenu(os.Stdout, commandFlags, commandname, cliOpts)
	}
	commandFlags.Parse(args)
	logctx.SetLogLevel(ctx, global.Verbosity)

	if commandFlags.NArg() > 1 {
		err = fmt.Errorf("unexpected arguments: %v", commandFlags.Args()[1:])
		return
	}
	opts.Target = commandFlags.Arg(0)

	replies, err := probe.Run(ctx, opts)
	if err != nil {
		return
	}
	if len(replies) == 0 {
		err = fmt.Errorf("no replies within %v", opts.Timeout)
		return
	}
	return
}
