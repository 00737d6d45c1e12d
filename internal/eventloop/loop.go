package eventloop

import (
	"context"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"gspnp/internal/transport"
	"runtime/debug"
	"time"

	"github.com/benbjohnson/clock"
)

// Creates a loop with nothing registered. Nil clock uses wall time.
func New(poller Poller, clk clock.Clock) (new *Loop) {
	if clk == nil {
		clk = clock.New()
	}
	new = &Loop{
		poller: poller,
		clock:  clk,
	}
	return
}

// Sets the socket callback and initial interest
func (loop *Loop) Register(interest transport.Interest, callback Callback) {
	loop.interest = interest
	loop.callback = callback
}

// Replaces the watched interest
func (loop *Loop) Modify(interest transport.Interest) {
	loop.interest = interest
}

// Currently watched interest
func (loop *Loop) Interest() (interest transport.Interest) {
	interest = loop.interest
	return
}

func (loop *Loop) ArmWrite() {
	loop.interest |= transport.Write
}

func (loop *Loop) DisarmWrite() {
	loop.interest &^= transport.Write
}

// Loop time source
func (loop *Loop) Clock() (clk clock.Clock) {
	clk = loop.clock
	return
}

// One iteration: bounded wait, dispatch Read then Write, then due timers
func (loop *Loop) RunOnce(ctx context.Context) {
	wait := global.LoopWaitCeiling
	if deadline, ok := loop.nextDeadline(); ok {
		untilDue := deadline.Sub(loop.clock.Now())
		if untilDue < 0 {
			untilDue = 0
		}
		if untilDue < wait {
			wait = untilDue
		}
	}

	ready, err := loop.poller.Poll(loop.interest, wait)
	if err != nil {
		loop.Metrics.PollErrors.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"readiness wait failed: %v\n", err)
		ready = 0
	}

	for _, event := range []transport.Interest{transport.Read, transport.Write} {
		// Interest may change while dispatching the previous event
		if ready&event == 0 || loop.interest&event == 0 || loop.callback == nil {
			continue
		}
		loop.Metrics.Events.Add(1)
		start := loop.clock.Now()
		loop.guard(ctx, "socket callback", func() {
			loop.callback(ctx, event)
		})
		loop.recordDispatch(loop.clock.Since(start))
	}

	loop.runTimers(ctx)
	loop.Metrics.Iterations.Add(1)
}

// Iterates until ctx is cancelled
func (loop *Loop) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSLoop)
	for {
		select {
		case <-ctx.Done():
			logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "event loop stopped\n")
			return
		default:
		}
		loop.RunOnce(ctx)
	}
}

func (loop *Loop) recordDispatch(elapsed time.Duration) {
	sample := float64(elapsed) / float64(time.Microsecond)
	if len(loop.dispatchTimes) < global.DispatchSampleLimit {
		loop.dispatchTimes = append(loop.dispatchTimes, sample)
		return
	}
	loop.dispatchTimes[loop.dispatchNext] = sample
	loop.dispatchNext = (loop.dispatchNext + 1) % global.DispatchSampleLimit
}

// Socket dispatch durations (microseconds) since the last call
func (loop *Loop) DrainDispatchTimes() (samples []float64) {
	samples = loop.dispatchTimes
	loop.dispatchTimes = nil
	loop.dispatchNext = 0
	return
}

// Isolates a panicking callback from the loop
func (loop *Loop) guard(ctx context.Context, name string, fn func()) {
	defer func() {
		if fatalError := recover(); fatalError != nil {
			loop.Metrics.Panics.Add(1)
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in %s: %v\n%s", name, fatalError, stack)
		}
	}()
	fn()
}
