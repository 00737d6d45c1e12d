// Process lifecycle: exit signals and systemd readiness notification
package lifecycle

import (
	"context"
	"fmt"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"net"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Sends READY=1 to systemd to indicate service startup complete.
func NotifyReady(ctx context.Context) (err error) {
	err = notify(ctx, "READY=1")
	return
}

// Sends STOPPING=1 to systemd to indicate shutdown in progress.
func NotifyStopping(ctx context.Context) (err error) {
	usec, err := monotonicUsec()
	if err != nil {
		return
	}
	err = notify(ctx, fmt.Sprintf("STOPPING=1\nMONOTONIC_USEC=%d", usec))
	return
}

// Sends custom status message to systemd for context.
func NotifyStatus(ctx context.Context, msg string) (err error) {
	err = notify(ctx, "STATUS="+msg)
	return
}

func monotonicUsec() (usec int64, err error) {
	var ts unix.Timespec
	err = unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts)
	if err != nil {
		err = fmt.Errorf("failed reading monotonic clock: %w", err)
		return
	}
	usec = ts.Sec*1_000_000 + int64(ts.Nsec)/1_000
	return
}

// Sends a raw sd_notify message.
// If NOTIFY_SOCKET is unset, this is a no-op and returns nil.
func notify(ctx context.Context, msg string) (err error) {
	sockPath := os.Getenv("NOTIFY_SOCKET")
	if sockPath == "" {
		// Not running under systemd
		return
	}

	// Abstract namespace socket
	if strings.HasPrefix(sockPath, "@") {
		sockPath = "\x00" + sockPath[1:]
	}

	addr := &net.UnixAddr{
		Name: sockPath,
		Net:  "unixgram",
	}

	conn, err := net.DialUnix("unixgram", nil, addr)
	if err != nil {
		err = fmt.Errorf("notify dial failed: %w", err)
		return
	}
	defer conn.Close()

	_, err = conn.Write([]byte(msg))
	if err != nil {
		err = fmt.Errorf("notify write failed: %w", err)
		return
	}

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Successfully notified systemd with message '%s'\n", msg)
	return
}
