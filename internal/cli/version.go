package cli

import (
	"fmt"
	"gspnp/internal/global"
	"io"
	"runtime"
)

func PrintVersion(out io.Writer, args []string) {
	if len(args) > 0 && (args[0] == "--verbosity" || args[0] == "-v") {
		fmt.Fprintf(out, "GSPnP %s\n", global.ProgVersion)
		fmt.Fprintf(out, "Built using %s(%s) for %s on %s\n", runtime.Version(), runtime.Compiler, runtime.GOOS, runtime.GOARCH)
		return
	}
	fmt.Fprintln(out, global.ProgVersion)
}
