// Single-threaded reactor: one bounded readiness wait per iteration, then timers
package eventloop

import (
	"context"
	"gspnp/internal/transport"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// Readiness source (the transport socket in production)
type Poller interface {
	Poll(interest transport.Interest, timeout time.Duration) (ready transport.Interest, err error)
}

// Invoked once per ready event (Read or Write)
type Callback func(ctx context.Context, event transport.Interest)

type TimerID uint64

type timer struct {
	id        TimerID
	due       time.Time
	period    time.Duration // zero for one-shot
	seq       uint64        // insertion order, breaks ties between equal deadlines
	fn        func(ctx context.Context)
	cancelled bool
	fired     bool
}

// Reactor state. Not safe for use outside the goroutine running the loop,
// except Metrics.
type Loop struct {
	poller   Poller
	clock    clock.Clock
	interest transport.Interest
	callback Callback
	timers   []*timer // sorted by (due, seq)
	firing   []*timer // batch being run by runTimers
	lastID   TimerID
	seq      uint64

	dispatchTimes []float64 // microseconds, ring of the most recent socket dispatches
	dispatchNext  int

	Metrics MetricStorage
}

type MetricStorage struct {
	Iterations atomic.Uint64 // completed loop iterations
	Events     atomic.Uint64 // readiness events dispatched
	Timers     atomic.Uint64 // timer invocations
	Panics     atomic.Uint64 // callbacks recovered by the guard
	PollErrors atomic.Uint64 // failed readiness waits
}
