package cli

import (
	"flag"
	"gspnp/internal/global"
)

func SetGlobalArguments(fs *flag.FlagSet) {
	fs.IntVar(&global.Verbosity, "v", global.VerbosityStandard, "Increase detailed progress messages (Higher is more verbose) <0...5>")
	fs.IntVar(&global.Verbosity, "verbosity", global.VerbosityStandard, "Increase detailed progress messages (Higher is more verbose) <0...5>")
}

func SetCommon(fs *flag.FlagSet, configPath *string) {
	fs.StringVar(configPath, "c", "", "Path to the configuration file (uses "+global.DefaultConfigPath+" when present)")
	fs.StringVar(configPath, "config", "", "Path to the configuration file (uses "+global.DefaultConfigPath+" when present)")
}

// Names of flags explicitly given on the command line
func setFlags(fs *flag.FlagSet) (set map[string]bool) {
	set = make(map[string]bool)
	fs.Visit(func(arg *flag.Flag) {
		set[arg.Name] = true
	})
	return
}
