package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"gspnp/internal/global"
	"gspnp/internal/lifecycle"
	"gspnp/internal/logctx"
	"gspnp/internal/responder"
	"io/fs"
	"os"
)

type listenOptions struct {
	configPath string
	url        string
	listenIP   string
	port       int
	group      string
	unicast    bool
}

func (opts *listenOptions) register(commandFlags *flag.FlagSet) {
	SetGlobalArguments(commandFlags)
	SetCommon(commandFlags, &opts.configPath)
	commandFlags.StringVar(&opts.url, "u", "", "Provisioning URL sent to devices (positional argument also accepted)")
	commandFlags.StringVar(&opts.url, "url", "", "Provisioning URL sent to devices (positional argument also accepted)")
	commandFlags.StringVar(&opts.listenIP, "l", "", "Local IPv4 address to bind (all interfaces when empty)")
	commandFlags.StringVar(&opts.listenIP, "listen", "", "Local IPv4 address to bind (all interfaces when empty)")
	commandFlags.IntVar(&opts.port, "p", global.DefaultSIPPort, "UDP port to listen on")
	commandFlags.IntVar(&opts.port, "port", global.DefaultSIPPort, "UDP port to listen on")
	commandFlags.StringVar(&opts.group, "g", global.DefaultMulticastGroup, "Multicast group to join")
	commandFlags.StringVar(&opts.group, "group", global.DefaultMulticastGroup, "Multicast group to join")
	commandFlags.BoolVar(&opts.unicast, "unicast", false, "Do not join any multicast group")
}

// Runs the responder until a termination signal arrives
func ListenMode(ctx context.Context, cliOpts *global.CommandSet, commandname string, args []string) (err error) {
	var opts listenOptions
	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	opts.register(commandFlags)

	commandFlags.Usage = func() {
		PrintHelpMenu(os.Stdout, commandFlags, commandname, cliOpts)
	}
	commandFlags.Parse(args)

	if commandFlags.NArg() > 1 {
		err = fmt.Errorf("unexpected arguments: %v", commandFlags.Args()[1:])
		return
	}
	if commandFlags.NArg() == 1 {
		opts.url = commandFlags.Arg(0)
	}
	logctx.SetLogLevel(ctx, global.Verbosity)

	daemonConfig, err := opts.daemonConfig(setFlags(commandFlags), commandFlags.NArg() == 1)
	if err != nil {
		return
	}

	daemon := responder.NewDaemon(daemonConfig)
	err = daemon.Start(ctx)
	if err != nil {
		err = fmt.Errorf("failed starting responder: %w", err)
		return
	}

	go lifecycle.SignalHandler(ctx, daemon)
	daemon.Run()
	return
}

// Config file (when any) with explicitly given flags layered on top
func (opts listenOptions) daemonConfig(set map[string]bool, positionalURL bool) (cfg responder.Config, err error) {
	configPath := opts.configPath
	if configPath == "" {
		_, statErr := os.Stat(global.DefaultConfigPath)
		if statErr == nil {
			configPath = global.DefaultConfigPath
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			err = fmt.Errorf("failed to check default config: %w", statErr)
			return
		}
	}

	if configPath != "" {
		var fileCfg responder.JSONConfig
		fileCfg, err = responder.LoadConfig(configPath)
		if err != nil {
			return
		}
		cfg, err = fileCfg.NewDaemonConf()
		if err != nil {
			return
		}
	}

	if set["u"] || set["url"] || positionalURL {
		cfg.ProvisioningURL = opts.url
	}
	if set["l"] || set["listen"] {
		cfg.ListenIP = opts.listenIP
	}
	if set["p"] || set["port"] || cfg.ListenPort == 0 {
		cfg.ListenPort = opts.port
	}
	if set["g"] || set["group"] {
		cfg.MulticastGroup = opts.group
		cfg.DisableMulticast = false
	}
	if opts.unicast {
		cfg.DisableMulticast = true
	}
	return
}
