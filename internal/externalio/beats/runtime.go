package beats

import (
	"context"
	"gspnp/internal/atomics"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"gspnp/internal/sipmsg"
	"runtime/debug"
)

// Queues a beacon for export without blocking; drops when the backlog is full
func (exporter *Exporter) Publish(info sipmsg.BeaconInfo) {
	if exporter == nil {
		return
	}
	// Counted before the send so the exporter never sees the beacon first
	exporter.Metrics.Depth.Add(1)
	select {
	case exporter.events <- info:
		exporter.Metrics.Published.Add(1)
	default:
		exporter.releaseDepth()
		exporter.Metrics.Dropped.Add(1)
	}
}

func (exporter *Exporter) releaseDepth() {
	for !atomics.Subtract(&exporter.Metrics.Depth, 1, 4) {
	}
}

// Sends queued beacons until ctx is cancelled, then closes the connection
func (exporter *Exporter) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSBeats)
	defer close(exporter.done)
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in beats exporter thread: %v\n%s", fatalError, stack)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			exporter.closeSink(ctx)
			return
		case info := <-exporter.events:
			exporter.send(ctx, info)
			exporter.releaseDepth()
		}
	}
}

// Blocks until Run has returned
func (exporter *Exporter) Wait() {
	if exporter == nil {
		return
	}
	<-exporter.done
}

func (exporter *Exporter) send(ctx context.Context, info sipmsg.BeaconInfo) {
	if exporter.sink == nil {
		sink, err := exporter.dial()
		if err != nil {
			exporter.Metrics.Errors.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"dropped beacon from %s: %v\n", info.Source, err)
			return
		}
		exporter.sink = sink
	}

	acked, err := exporter.sink.Send([]interface{}{Event(info)})
	exporter.Metrics.Sent.Add(uint64(acked))
	if err != nil {
		exporter.Metrics.Errors.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"failed sending beacon to beats server %s: %v\n", exporter.endpoint, err)

		// Reconnect on next beacon
		exporter.closeSink(ctx)
	}
}

func (exporter *Exporter) closeSink(ctx context.Context) {
	if exporter.sink == nil {
		return
	}
	err := exporter.sink.Close()
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
			"beats connection did not close cleanly: %v\n", err)
	}
	exporter.sink = nil
}
