package eventloop

import (
	"context"
	"errors"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"gspnp/internal/transport"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pollResult struct {
	ready transport.Interest
	err   error
}

// Scripted poller; an empty script reports a timeout and advances the mock clock
type fakePoller struct {
	clock     *clock.Mock
	script    []pollResult
	timeouts  []time.Duration
	interests []transport.Interest
}

func (poller *fakePoller) Poll(interest transport.Interest, timeout time.Duration) (ready transport.Interest, err error) {
	poller.timeouts = append(poller.timeouts, timeout)
	poller.interests = append(poller.interests, interest)
	if len(poller.script) == 0 {
		poller.clock.Add(timeout)
		return
	}
	next := poller.script[0]
	poller.script = poller.script[1:]
	ready, err = next.ready, next.err
	return
}

func newTestLoop(t *testing.T, script ...pollResult) (ctx context.Context, loop *Loop, poller *fakePoller, logger *logctx.Logger) {
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	ctx = logctx.New(context.Background(), global.NSTest, global.VerbosityStandard, done)
	logger = logctx.GetLogger(ctx)

	mock := clock.NewMock()
	poller = &fakePoller{clock: mock, script: script}
	loop = New(poller, mock)
	return
}

func logContains(logger *logctx.Logger, text string) (found bool) {
	for _, line := range logger.GetFormattedLogLines() {
		if strings.Contains(line, text) {
			found = true
			return
		}
	}
	return
}

func TestWaitIsBoundedByCeiling(t *testing.T) {
	ctx, loop, poller, _ := newTestLoop(t)

	loop.RunOnce(ctx)
	loop.After(10*time.Second, func(ctx context.Context) {})
	loop.RunOnce(ctx)

	assert.Equal(t, []time.Duration{global.LoopWaitCeiling, global.LoopWaitCeiling}, poller.timeouts)
}

func TestWaitIsBoundedByNextTimer(t *testing.T) {
	ctx, loop, poller, _ := newTestLoop(t)

	var fired int
	loop.After(200*time.Millisecond, func(ctx context.Context) { fired++ })
	loop.RunOnce(ctx)

	require.Len(t, poller.timeouts, 1)
	assert.Equal(t, 200*time.Millisecond, poller.timeouts[0])
	assert.Equal(t, 1, fired)
	assert.Zero(t, loop.Pending())
}

func TestReadDispatchedBeforeWriteThenTimers(t *testing.T) {
	ctx, loop, _, _ := newTestLoop(t, pollResult{ready: transport.Read | transport.Write})

	var order []string
	loop.Register(transport.Read|transport.Write, func(ctx context.Context, event transport.Interest) {
		switch event {
		case transport.Read:
			order = append(order, "read")
		case transport.Write:
			order = append(order, "write")
		}
	})
	loop.After(0, func(ctx context.Context) { order = append(order, "timer") })

	loop.RunOnce(ctx)
	assert.Equal(t, []string{"read", "write", "timer"}, order)
	assert.Equal(t, uint64(2), loop.Metrics.Events.Load())
}

func TestWriteSkippedWhenDisarmed(t *testing.T) {
	ctx, loop, poller, _ := newTestLoop(t,
		pollResult{ready: transport.Read | transport.Write},
		pollResult{ready: transport.Write},
	)

	var events []transport.Interest
	loop.Register(transport.Read, func(ctx context.Context, event transport.Interest) {
		events = append(events, event)
		if event == transport.Read {
			// Disarm from inside the read dispatch
			loop.DisarmWrite()
		}
	})
	loop.ArmWrite()
	assert.Equal(t, transport.Read|transport.Write, loop.Interest())

	loop.RunOnce(ctx)
	loop.RunOnce(ctx)

	assert.Equal(t, []transport.Interest{transport.Read}, events)
	assert.Equal(t, transport.Read, poller.interests[1])
}

func TestEqualDeadlinesRunInInsertionOrder(t *testing.T) {
	ctx, loop, _, _ := newTestLoop(t)

	var order []int
	for i := 0; i < 4; i++ {
		loop.After(time.Second, func(ctx context.Context) { order = append(order, i) })
	}
	loop.After(500*time.Millisecond, func(ctx context.Context) { order = append(order, -1) })

	loop.RunOnce(ctx) // wakes at 500ms
	loop.RunOnce(ctx) // wakes at 1s
	assert.Equal(t, []int{-1, 0, 1, 2, 3}, order)
}

func TestEveryRepeatsUntilCancelled(t *testing.T) {
	ctx, loop, _, _ := newTestLoop(t)

	var ticks int
	id := loop.Every(300*time.Millisecond, func(ctx context.Context) { ticks++ })

	for i := 0; i < 3; i++ {
		loop.RunOnce(ctx)
	}
	assert.Equal(t, 3, ticks)
	assert.Equal(t, uint64(3), loop.Metrics.Timers.Load())

	assert.True(t, loop.Cancel(id))
	assert.False(t, loop.Cancel(id))
	loop.RunOnce(ctx)
	assert.Equal(t, 3, ticks)
}

func TestTimerCancelsLaterTimerInSameBatch(t *testing.T) {
	ctx, loop, _, _ := newTestLoop(t)

	var ran []string
	var second TimerID
	loop.After(time.Second, func(ctx context.Context) {
		ran = append(ran, "first")
		assert.True(t, loop.Cancel(second))
	})
	second = loop.After(time.Second, func(ctx context.Context) { ran = append(ran, "second") })

	loop.RunOnce(ctx)
	assert.Equal(t, []string{"first"}, ran)
}

func TestTimerScheduledByTimerWaitsForNextIteration(t *testing.T) {
	ctx, loop, _, _ := newTestLoop(t)

	var ran []string
	loop.After(0, func(ctx context.Context) {
		ran = append(ran, "outer")
		loop.After(0, func(ctx context.Context) { ran = append(ran, "inner") })
	})

	loop.RunOnce(ctx)
	assert.Equal(t, []string{"outer"}, ran)
	loop.RunOnce(ctx)
	assert.Equal(t, []string{"outer", "inner"}, ran)
}

func TestPanicIsolation(t *testing.T) {
	ctx, loop, _, logger := newTestLoop(t,
		pollResult{ready: transport.Read},
		pollResult{ready: transport.Read},
	)

	var calls int
	loop.Register(transport.Read, func(ctx context.Context, event transport.Interest) {
		calls++
		if calls == 1 {
			panic("bad datagram")
		}
	})
	var timerRan bool
	loop.After(0, func(ctx context.Context) { timerRan = true })

	loop.RunOnce(ctx)
	loop.RunOnce(ctx)

	assert.Equal(t, 2, calls)
	assert.True(t, timerRan, "timers still run after a callback panic")
	assert.Equal(t, uint64(1), loop.Metrics.Panics.Load())
	assert.True(t, logContains(logger, "panic in socket callback: bad datagram"))
}

func TestPanickingTimerIsRecovered(t *testing.T) {
	ctx, loop, _, logger := newTestLoop(t)

	var ticks int
	loop.Every(time.Second, func(ctx context.Context) {
		ticks++
		panic("tick")
	})
	loop.RunOnce(ctx)
	loop.RunOnce(ctx)

	assert.Equal(t, 2, ticks, "periodic timer survives its own panic")
	assert.True(t, logContains(logger, "panic in timer: tick"))
}

func TestPollErrorStillRunsTimers(t *testing.T) {
	ctx, loop, _, logger := newTestLoop(t, pollResult{ready: transport.Read, err: errors.New("bad descriptor")})

	var dispatched, timerRan bool
	loop.Register(transport.Read, func(ctx context.Context, event transport.Interest) { dispatched = true })
	loop.After(0, func(ctx context.Context) { timerRan = true })

	loop.RunOnce(ctx)
	assert.False(t, dispatched)
	assert.True(t, timerRan)
	assert.Equal(t, uint64(1), loop.Metrics.PollErrors.Load())
	assert.True(t, logContains(logger, "bad descriptor"))
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, loop, _, _ := newTestLoop(t)
	ctx, cancel := context.WithCancel(ctx)

	var iterations int
	loop.Every(time.Second, func(ctx context.Context) {
		iterations++
		if iterations == 5 {
			cancel()
		}
	})

	loop.Run(ctx)
	assert.Equal(t, 5, iterations)
}

func TestDispatchTimesRecorded(t *testing.T) {
	ctx, loop, poller, _ := newTestLoop(t,
		pollResult{ready: transport.Read},
		pollResult{ready: transport.Read},
	)
	loop.Register(transport.Read, func(ctx context.Context, event transport.Interest) {
		poller.clock.Add(3 * time.Millisecond)
	})

	loop.RunOnce(ctx)
	loop.RunOnce(ctx)
	loop.RunOnce(ctx) // timeout, nothing dispatched

	assert.Equal(t, []float64{3000, 3000}, loop.DrainDispatchTimes())
	assert.Empty(t, loop.DrainDispatchTimes())
}

func TestDispatchTimesBounded(t *testing.T) {
	_, loop, _, _ := newTestLoop(t)
	for i := 0; i < global.DispatchSampleLimit+10; i++ {
		loop.recordDispatch(time.Duration(i) * time.Microsecond)
	}

	samples := loop.DrainDispatchTimes()
	require.Len(t, samples, global.DispatchSampleLimit)
	// Oldest entries were overwritten by the newest
	assert.Equal(t, float64(global.DispatchSampleLimit), samples[0])
	assert.Equal(t, float64(global.DispatchSampleLimit-1), samples[global.DispatchSampleLimit-1])
}
