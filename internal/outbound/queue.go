package outbound

import (
	"context"
	"errors"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"gspnp/internal/transport"
	"net/netip"
)

// Creates an empty queue (write watch disarmed).
// A zero budget means unlimited.
func New(namespace []string, watcher WriteWatcher, budget uint64) (new *Queue) {
	new = &Queue{
		Namespace: append(append([]string(nil), namespace...), global.NSQueue),
		watcher:   watcher,
		budget:    budget,
	}
	return
}

// Reports whether size more payload bytes stay within the budget
func (queue *Queue) Fits(size uint64) (fits bool) {
	fits = queue.budget == 0 || queue.bytes+size <= queue.budget
	return
}

// Appends a datagram to the tail; arms write watching when the queue was empty
func (queue *Queue) Enqueue(ctx context.Context, payload []byte, dest netip.AddrPort) (queued bool) {
	size := uint64(len(payload))
	if !queue.Fits(size) {
		queue.Metrics.Dropped.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Outbound queue over budget (%d/%d bytes): dropped %d byte datagram to %s\n",
			queue.bytes, queue.budget, size, dest)
		return
	}

	queue.entries = append(queue.entries, Entry{Payload: payload, Destination: dest})
	queue.bytes += size
	queue.Metrics.Queued.Add(1)
	queue.Metrics.Depth.Store(uint64(len(queue.entries)))

	if !queue.armed {
		queue.armed = true
		queue.watcher.ArmWrite()
	}

	queued = true
	return
}

// Sends the head datagram. Successful or not, the entry leaves the queue (no retry),
// except when the socket reports it would block.
// Disarms write watching once the queue is empty.
func (queue *Queue) DrainOne(ctx context.Context, sender Sender) (sent bool) {
	if len(queue.entries) == 0 {
		queue.disarm()
		return
	}

	head := queue.entries[0]
	err := sender.WriteTo(head.Payload, head.Destination)
	if errors.Is(err, transport.ErrWouldBlock) {
		// Spurious writability, head stays for the next readiness event
		return
	}

	queue.entries[0] = Entry{}
	queue.entries = queue.entries[1:]
	queue.bytes -= uint64(len(head.Payload))
	queue.Metrics.Depth.Store(uint64(len(queue.entries)))

	if err != nil {
		queue.Metrics.SendErrors.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Dropped datagram to %s: %v\n", head.Destination, err)
	} else {
		sent = true
		queue.Metrics.Sent.Add(1)
		logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
			"sendto %s: %d bytes\n", head.Destination, len(head.Payload))
		logctx.LogEvent(ctx, global.VerbosityFullData, global.InfoLog,
			"sendto %s: %q\n", head.Destination, head.Payload)
	}

	if len(queue.entries) == 0 {
		queue.entries = nil
		queue.disarm()
	}
	return
}

func (queue *Queue) disarm() {
	if queue.armed {
		queue.armed = false
		queue.watcher.DisarmWrite()
	}
}

// Number of pending datagrams
func (queue *Queue) Len() (length int) {
	length = len(queue.entries)
	return
}

// Whether write watching is currently armed
func (queue *Queue) Armed() (armed bool) {
	armed = queue.armed
	return
}

// Copy of pending entries, head first
func (queue *Queue) Pending() (entries []Entry) {
	entries = append(entries, queue.entries...)
	return
}
