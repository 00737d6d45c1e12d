// FIFO of pending datagrams drained only when the socket is writable
package outbound

import (
	"errors"
	"net/netip"
	"sync/atomic"
)

var ErrOverBudget = errors.New("outbound queue over budget")

// Arms/disarms write-readiness watching for the queue's socket
type WriteWatcher interface {
	ArmWrite()
	DisarmWrite()
}

// Transmits one datagram
type Sender interface {
	WriteTo(payload []byte, dest netip.AddrPort) error
}

// Pending datagram
type Entry struct {
	Payload     []byte
	Destination netip.AddrPort
}

// Owned by the event loop goroutine; only Metrics is safe to read elsewhere
type Queue struct {
	Namespace []string
	entries   []Entry
	bytes     uint64 // payload bytes currently queued
	budget    uint64 // maximum payload bytes queued at once
	watcher   WriteWatcher
	armed     bool
	Metrics   MetricStorage
}

type MetricStorage struct {
	Queued     atomic.Uint64 // datagrams accepted into the queue
	Sent       atomic.Uint64 // datagrams handed to the socket
	SendErrors atomic.Uint64 // datagrams dropped after a socket error
	Dropped    atomic.Uint64 // datagrams refused for exceeding the memory budget
	Depth      atomic.Uint64 // current queue length
}
