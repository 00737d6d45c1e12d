package eventloop

import (
	"context"
	"sort"
	"time"
)

// Runs fn once after delay
func (loop *Loop) After(delay time.Duration, fn func(ctx context.Context)) (id TimerID) {
	id = loop.schedule(delay, 0, fn)
	return
}

// Runs fn every interval, first run one interval from now
func (loop *Loop) Every(interval time.Duration, fn func(ctx context.Context)) (id TimerID) {
	if interval <= 0 {
		interval = time.Millisecond
	}
	id = loop.schedule(interval, interval, fn)
	return
}

// Removes a pending timer. Reports whether it was still scheduled.
func (loop *Loop) Cancel(id TimerID) (removed bool) {
	for i, pending := range loop.timers {
		if pending.id != id {
			continue
		}
		pending.cancelled = true
		loop.timers = append(loop.timers[:i], loop.timers[i+1:]...)
		removed = true
		return
	}

	// Popped for the current batch but not run yet
	for _, pending := range loop.firing {
		if pending.id == id && !pending.fired && !pending.cancelled {
			pending.cancelled = true
			removed = true
			return
		}
	}
	return
}

// Number of scheduled timers
func (loop *Loop) Pending() (count int) {
	count = len(loop.timers)
	return
}

func (loop *Loop) schedule(delay, period time.Duration, fn func(ctx context.Context)) (id TimerID) {
	loop.lastID++
	id = loop.lastID
	loop.insert(&timer{
		id:     id,
		due:    loop.clock.Now().Add(delay),
		period: period,
		fn:     fn,
	})
	return
}

func (loop *Loop) insert(entry *timer) {
	loop.seq++
	entry.seq = loop.seq

	index := sort.Search(len(loop.timers), func(i int) bool {
		return loop.timers[i].due.After(entry.due)
	})
	loop.timers = append(loop.timers, nil)
	copy(loop.timers[index+1:], loop.timers[index:])
	loop.timers[index] = entry
}

func (loop *Loop) nextDeadline() (deadline time.Time, ok bool) {
	if len(loop.timers) == 0 {
		return
	}
	deadline = loop.timers[0].due
	ok = true
	return
}

// Runs every timer due at the start of the call, earliest first.
// Timers scheduled by a running timer wait for the next iteration.
func (loop *Loop) runTimers(ctx context.Context) {
	now := loop.clock.Now()

	var due []*timer
	for len(loop.timers) > 0 && !loop.timers[0].due.After(now) {
		due = append(due, loop.timers[0])
		loop.timers[0] = nil
		loop.timers = loop.timers[1:]
	}

	loop.firing = due
	defer func() { loop.firing = nil }()

	for _, entry := range due {
		if entry.cancelled {
			continue
		}
		entry.fired = true

		if entry.period > 0 {
			next := entry.due.Add(entry.period)
			if !next.After(now) {
				next = now.Add(entry.period)
			}
			entry.due = next
			entry.fired = false
			loop.insert(entry)
		}

		loop.Metrics.Timers.Add(1)
		loop.guard(ctx, "timer", func() {
			entry.fn(ctx)
		})
	}
}
