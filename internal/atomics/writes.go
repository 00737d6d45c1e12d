// Helpers for counters shared between the loop and worker goroutines
package atomics

import (
	"sync/atomic"
	"time"
)

// Lowers source by value, clamping at zero instead of wrapping.
// Contended CAS attempts are retried with a growing pause, up to maxRetries.
func Subtract(source *atomic.Uint64, value uint64, maxRetries int) (success bool) {
	pause := 10 * time.Microsecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		current := source.Load()
		if current == 0 {
			success = true
			return
		}

		next := uint64(0)
		if value < current {
			next = current - value
		}
		if source.CompareAndSwap(current, next) {
			success = true
			return
		}

		time.Sleep(pause)
		pause *= 2
	}
	return
}
