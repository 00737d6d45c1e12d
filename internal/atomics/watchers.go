package atomics

import (
	"sync/atomic"
	"time"
)

const (
	zeroStreak   int           = 3 // consecutive zero reads before trusting the value
	firstBackoff time.Duration = 20 * time.Millisecond
	maxBackoff   time.Duration = 500 * time.Millisecond
)

// Polls value until it reads zero several times in a row or timeout passes.
// lastValue is what remained when giving up.
func WaitUntilZero(value *atomic.Uint64, timeout time.Duration) (reachedZero bool, lastValue uint64) {
	deadline := time.Now().Add(timeout)
	backoff := firstBackoff
	streak := 0

	for {
		lastValue = value.Load()
		if lastValue == 0 {
			streak++
			if streak >= zeroStreak {
				reachedZero = true
				return
			}
		} else {
			streak = 0
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		time.Sleep(min(backoff, remaining))
		backoff = min(backoff*2, maxBackoff)
	}
}
