package logctx

import (
	"context"
	"gspnp/internal/global"
	"strings"
	"testing"
	"time"
)

func TestLogEventFiltering(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	ctx := New(context.Background(), global.NSTest, global.VerbosityStandard, done)
	logger := GetLogger(ctx)
	if logger == nil {
		t.Fatalf("expected logger creation, got nil logger")
	}

	tests := []struct {
		name          string
		printLevel    int
		eventLevel    int
		severity      string
		message       string
		vars          []any
		expectEvents  int
		expectMessage string
	}{
		{
			name:          "beacon line at standard verbosity",
			printLevel:    global.VerbosityStandard,
			eventLevel:    global.VerbosityStandard,
			severity:      global.InfoLog,
			message:       "SUBSCRIBE mac:%s",
			vars:          []any{"c074ad112233"},
			expectEvents:  1,
			expectMessage: "SUBSCRIBE mac:c074ad112233",
		},
		{
			name:         "datagram trace above print level is dropped",
			printLevel:   global.VerbosityStandard,
			eventLevel:   global.VerbosityData,
			severity:     global.InfoLog,
			message:      "received datagram",
			expectEvents: 0,
		},
		{
			name:          "errors bypass level filtering",
			printLevel:    global.VerbosityNone,
			eventLevel:    global.VerbosityDebug,
			severity:      global.ErrorLog,
			message:       "panic in loop callback",
			expectEvents:  1,
			expectMessage: "panic in loop callback",
		},
		{
			name:          "format verb with nil variables is left alone",
			printLevel:    global.VerbosityData,
			eventLevel:    global.VerbosityProgress,
			severity:      global.WarnLog,
			message:       "url %s",
			expectEvents:  1,
			expectMessage: "url %s",
		},
		{
			name:          "format verb without variables is left alone",
			printLevel:    global.VerbosityData,
			eventLevel:    global.VerbosityProgress,
			severity:      global.WarnLog,
			message:       "url %s",
			vars:          []any{},
			expectEvents:  1,
			expectMessage: "url %s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger.mutex.Lock()
			logger.queue = []Event{}
			logger.mutex.Unlock()

			SetLogLevel(ctx, tt.printLevel)
			LogEvent(ctx, tt.eventLevel, tt.severity, tt.message, tt.vars...)

			logger.mutex.Lock()
			defer logger.mutex.Unlock()
			if len(logger.queue) != tt.expectEvents {
				t.Fatalf("expected %d events, got %d", tt.expectEvents, len(logger.queue))
			}
			if tt.expectEvents == 1 {
				ev := logger.queue[0]
				if ev.Severity != tt.severity {
					t.Errorf("expected severity %q, got %q", tt.severity, ev.Severity)
				}
				if ev.Message != tt.expectMessage {
					t.Errorf("expected message %q, got %q", tt.expectMessage, ev.Message)
				}
				if time.Since(ev.Timestamp) > time.Second {
					t.Errorf("event timestamp too old: %v", ev.Timestamp)
				}
			}
		})
	}
}

func TestLogEventWithoutLogger(t *testing.T) {
	defer func() {
		if fatalError := recover(); fatalError != nil {
			t.Fatalf("logging without a logger panicked: %v", fatalError)
		}
	}()
	LogEvent(context.Background(), global.VerbosityStandard, global.InfoLog, "nobody listens")
}

func TestGetFormattedLogLinesOrdering(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	logger := NewLogger(global.NSTest, global.VerbosityDebug, done)
	base := time.Now()

	logger.mutex.Lock()
	logger.queue = []Event{
		{Timestamp: base.Add(3 * time.Second), Message: "third"},
		{Message: "zero"},
		{Timestamp: base.Add(1 * time.Second), Message: "first"},
		{Timestamp: base.Add(2 * time.Second), Message: "second"},
	}
	logger.mutex.Unlock()

	lines := logger.GetFormattedLogLines()
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	for i, want := range []string{"first", "second", "third", "zero"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d: expected %q in %q", i, want, lines[i])
		}
		if !strings.HasSuffix(lines[i], "\n") {
			t.Errorf("line %d: missing trailing newline: %q", i, lines[i])
		}
	}
}

func TestRecordFollowsLevelChanges(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	ctx := New(context.Background(), global.NSTest, global.VerbosityStandard, done)
	logger := GetLogger(ctx)

	LogEvent(ctx, global.VerbosityData, global.InfoLog, "sendto %s: %d bytes\n", "192.168.1.2:5080", 336)
	SetLogLevel(ctx, global.VerbosityData)
	LogEvent(ctx, global.VerbosityData, global.InfoLog, "sendto %s: %d bytes\n", "192.168.1.2:5080", 512)

	if len(logger.queue) != 1 {
		t.Fatalf("expected 1 event after raising the level, got %d", len(logger.queue))
	}
	if want := "sendto 192.168.1.2:5080: 512 bytes\n"; logger.queue[0].Message != want {
		t.Errorf("got message %q, want %q", logger.queue[0].Message, want)
	}
}
