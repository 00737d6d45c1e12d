package lifecycle

import (
	"context"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

type fakeDaemon struct {
	shutdowns int
}

func (daemon *fakeDaemon) Shutdown() { daemon.shutdowns++ }

func testContext(t *testing.T) context.Context {
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	return logctx.New(context.Background(), global.NSTest, global.VerbosityStandard, done)
}

// Listens on a temporary NOTIFY_SOCKET
func notifyListener(t *testing.T) *net.UnixConn {
	path := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Fatalf("failed to listen on notify socket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	t.Setenv("NOTIFY_SOCKET", path)
	return conn
}

func readNotify(t *testing.T, conn *net.UnixConn) string {
	err := conn.SetReadDeadline(time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("no notification received: %v", err)
	}
	return string(buf[:n])
}

func TestNotifyMessages(t *testing.T) {
	ctx := testContext(t)
	conn := notifyListener(t)

	if err := NotifyReady(ctx); err != nil {
		t.Fatalf("NotifyReady: %v", err)
	}
	if got := readNotify(t, conn); got != "READY=1" {
		t.Errorf("got %q, want READY=1", got)
	}

	if err := NotifyStatus(ctx, "listening on 0.0.0.0:5060"); err != nil {
		t.Fatalf("NotifyStatus: %v", err)
	}
	if got := readNotify(t, conn); got != "STATUS=listening on 0.0.0.0:5060" {
		t.Errorf("got unexpected status %q", got)
	}

	if err := NotifyStopping(ctx); err != nil {
		t.Fatalf("NotifyStopping: %v", err)
	}
	lines := strings.Split(readNotify(t, conn), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", lines)
	}
	if lines[0] != "STOPPING=1" {
		t.Errorf("got %q, want STOPPING=1", lines[0])
	}
	if !strings.HasPrefix(lines[1], "MONOTONIC_USEC=") {
		t.Errorf("missing monotonic timestamp: %q", lines[1])
	}
}

func TestNotifyWithoutSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	if err := NotifyReady(testContext(t)); err != nil {
		t.Errorf("expected no-op without NOTIFY_SOCKET, got %v", err)
	}
}

func TestNotifyUnreachableSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", filepath.Join(t.TempDir(), "missing.sock"))
	if err := NotifyReady(testContext(t)); err == nil {
		t.Errorf("expected error for missing socket")
	}
}

func TestHandleSignals(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	ctx := testContext(t)
	daemon := &fakeDaemon{}

	sigChan := make(chan os.Signal, 3)
	sigChan <- syscall.SIGHUP
	sigChan <- syscall.SIGTERM
	sigChan <- syscall.SIGINT

	HandleSignals(ctx, daemon, sigChan)

	// SIGHUP ignored, first exit signal shuts down once
	if daemon.shutdowns != 1 {
		t.Errorf("expected 1 shutdown, got %d", daemon.shutdowns)
	}
	if len(sigChan) != 1 {
		t.Errorf("handler should return after shutdown, %d signals left", len(sigChan))
	}
}

func TestHandleSignalsContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	daemon := &fakeDaemon{}
	HandleSignals(ctx, daemon, make(chan os.Signal))
	if daemon.shutdowns != 0 {
		t.Errorf("expected no shutdown, got %d", daemon.shutdowns)
	}
}
