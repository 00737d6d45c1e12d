package lifecycle

import (
	"context"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"os"
	"os/signal"
	"syscall"
)

type DaemonLike interface {
	Shutdown()
}

// Blocks until an exit signal arrives, then shuts the daemon down.
// SIGHUP is logged and ignored (configuration is fixed at startup).
func SignalHandler(ctx context.Context, daemon DaemonLike) {
	sigChan := make(chan os.Signal, 10)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	HandleSignals(ctx, daemon, sigChan)
}

// Signal processing loop. Returns after shutdown or when ctx is done.
func HandleSignals(ctx context.Context, daemon DaemonLike, sigChan <-chan os.Signal) {
	for {
		var sig os.Signal
		select {
		case <-ctx.Done():
			return
		case sig = <-sigChan:
		}

		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Received signal: %v\n", sig)

		if sig == syscall.SIGHUP {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Reload is not supported, restart the service to apply configuration changes\n")
			continue
		}

		err := NotifyStopping(ctx)
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify stopping failed: %v\n", err)
		}

		daemon.Shutdown()
		return
	}
}
