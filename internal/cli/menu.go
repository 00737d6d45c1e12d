package cli

import (
	"flag"
	"fmt"
	"gspnp/internal/global"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	RootCLICommand  string = "root"
	helpIndent      int    = 2
	helpMenuTrailer string = `
Devices are answered only when a provisioning URL is given.
Without one the responder logs beacons and stays silent.
`
)

// Full standardized help menu for the root or a direct subcommand
func PrintHelpMenu(out io.Writer, fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	curCmdSet := rootCmd
	usageParts := []string{filepath.Base(os.Args[0])}

	if command != "" && command != RootCLICommand {
		cmd, ok := rootCmd.ChildCommands[command]
		if !ok {
			fmt.Fprintf(out, "Unknown command: %s\n", command)
			return
		}
		curCmdSet = cmd
		usageParts = append(usageParts, cmd.CommandName)
	} else if len(rootCmd.ChildCommands) > 0 {
		usageParts = append(usageParts, "[subcommand]")
	}
	usageParts = append(usageParts, "[options]")
	if curCmdSet.UsageOption != "" {
		usageParts = append(usageParts, curCmdSet.UsageOption)
	}

	fmt.Fprintf(out, "Usage: %s\n\n", strings.Join(usageParts, " "))

	indent := strings.Repeat(" ", helpIndent)
	if curCmdSet == rootCmd {
		fmt.Fprintln(out, curCmdSet.Description)
		fmt.Fprintln(out, curCmdSet.FullDescription)
		fmt.Fprintln(out)
	} else if curCmdSet.FullDescription != "" {
		fmt.Fprintf(out, "%sDescription:\n", indent)
		fmt.Fprintf(out, "%s%s%s\n\n", indent, indent, curCmdSet.FullDescription)
	}

	if len(curCmdSet.ChildCommands) > 0 {
		names := make([]string, 0, len(curCmdSet.ChildCommands))
		width := 0
		for name := range curCmdSet.ChildCommands {
			names = append(names, name)
			width = max(width, len(name))
		}
		sort.Strings(names)

		fmt.Fprintf(out, "%sSubcommands:\n", indent)
		for _, name := range names {
			fmt.Fprintf(out, "%s%s%-*s - %s\n", indent, indent, width+2, name, curCmdSet.ChildCommands[name].Description)
		}
		fmt.Fprintln(out)
	}

	printFlagOptions(out, fs)

	if curCmdSet == rootCmd {
		fmt.Fprint(out, helpMenuTrailer)
	}
}

type flagOption struct {
	names      []string // "-v", "--verbosity"
	usage      string
	defaultVal string
}

// Merges short/long aliases sharing a usage text into one line each
func collectFlagOptions(fs *flag.FlagSet) (options []*flagOption) {
	byUsage := make(map[string]*flagOption)
	fs.VisitAll(func(arg *flag.Flag) {
		prefix := "--"
		if len(arg.Name) == 1 {
			prefix = "-"
		}

		option, seen := byUsage[arg.Usage]
		if !seen {
			option = &flagOption{usage: arg.Usage, defaultVal: arg.DefValue}
			byUsage[arg.Usage] = option
			options = append(options, option)
		}
		option.names = append(option.names, prefix+arg.Name)
	})

	for _, option := range options {
		// Short spelling first
		sort.Slice(option.names, func(a, b int) bool {
			return len(option.names[a]) < len(option.names[b])
		})
	}
	sort.Slice(options, func(a, b int) bool {
		return strings.TrimLeft(options[a].names[0], "-") < strings.TrimLeft(options[b].names[0], "-")
	})
	return
}

func printFlagOptions(out io.Writer, fs *flag.FlagSet) {
	options := collectFlagOptions(fs)
	if len(options) == 0 {
		return
	}

	// Long-only options line up after the short column ("-x, ")
	const shortColumn = 4
	labels := make([]string, len(options))
	width := 0
	for i, option := range options {
		labels[i] = strings.Join(option.names, ", ")
		if !strings.HasPrefix(labels[i], "--") {
			width = max(width, len(labels[i]))
		} else {
			width = max(width, len(labels[i])+shortColumn)
		}
	}

	indent := strings.Repeat(" ", helpIndent)
	fmt.Fprintf(out, "%sOptions:\n", indent)
	for i, option := range options {
		label := labels[i]
		if strings.HasPrefix(label, "--") {
			label = strings.Repeat(" ", shortColumn) + label
		}

		desc := option.usage
		// Skip printing any "empty" defaults
		if option.defaultVal != "" && option.defaultVal != "false" && option.defaultVal != "0" {
			desc += fmt.Sprintf(" [default: %s]", option.defaultVal)
		}
		fmt.Fprintf(out, "%s%s%-*s%s\n", indent, indent, width+2, label, desc)
	}
}
