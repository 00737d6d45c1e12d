package logctx

import (
	"fmt"
	"gspnp/internal/global"
	"io"
	"sort"
	"strings"
	"time"
)

// Hold main thread exit until logger is finished its work
func (logger *Logger) Wait() {
	logger.wg.Wait()
}

// Wake signals/broadcasts to any goroutines waiting on the condition variable
func (logger *Logger) Wake() {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.cond.Broadcast()
}

// Starts a go routine that reads events and writes formatted output to io.Writer.
// Stops when logger.Done is closed.
func StartWatcher(logger *Logger, output io.Writer) {
	logger.wg.Add(1)

	go func() {
		defer logger.wg.Done()

		var dedup dedupState
		const dedupWindow = 5 * time.Second
		const minRepeats = 10
		const suppressCooldown = 1 * time.Minute

		for {
			logger.mutex.Lock()

			// If done and queue is empty, exit
			if len(logger.queue) == 0 {
				select {
				case <-logger.Done:
					logger.mutex.Unlock()
					return
				default:
				}
			}

			// Wait for events
			for len(logger.queue) == 0 {
				select {
				case <-logger.Done:
					logger.mutex.Unlock()
					return
				default:
					logger.cond.Wait()
				}
			}

			// Pop one event from the front of the queue
			event := logger.queue[0]
			logger.queue = logger.queue[1:]
			stampless := logger.stampless
			logger.mutex.Unlock()

			now := time.Now()

			// Deduplication logic
			// Duplicate events older than the deduplication window are not considered duplicates.
			// Purely meant for highly repetitive message suppression to prevent excessive noise.
			if event.Message != "" &&
				event.Message == dedup.lastMsg &&
				now.Sub(event.Timestamp) <= dedupWindow {

				dedup.repeatCount++
				// Only print suppression message once per minute
				if dedup.repeatCount >= minRepeats && now.Sub(dedup.lastSuppressTime) >= suppressCooldown {
					notice := Event{
						Timestamp: event.Timestamp,
						Tags:      event.Tags,
						Severity:  global.InfoLog,
						Message:   fmt.Sprintf("Suppressed %d repeated messages: %s", dedup.repeatCount, dedup.lastMsg),
					}
					if stampless {
						notice.Timestamp = time.Time{}
					}
					fmt.Fprintf(output, "%s", notice.Format())

					dedup.lastSuppressTime = now
					dedup.repeatCount = 0
				}

				// skip printing this repeated message
				continue
			} else {
				// Reset counter if message changes or window exceeded
				dedup.lastMsg = event.Message
				dedup.repeatCount = 1
			}

			if stampless {
				event.Timestamp = time.Time{}
			}
			fmt.Fprintf(output, "%s", event.Format())
		}
	}()
}

// Snapshot of queued (not yet written) events, oldest first
func (logger *Logger) GetFormattedLogLines() (formatted []string) {
	// Copy under lock to avoid holding mutex while sorting/formatting
	logger.mutex.Lock()
	events := make([]Event, len(logger.queue))
	copy(events, logger.queue)
	logger.mutex.Unlock()

	// Stable sort: oldest to newest
	sort.SliceStable(events, func(i, j int) bool {
		ti := events[i].Timestamp
		tj := events[j].Timestamp

		// Zero timestamps sort last
		if ti.IsZero() && tj.IsZero() {
			return false
		}
		if ti.IsZero() {
			return false
		}
		if tj.IsZero() {
			return true
		}
		return ti.Before(tj)
	})

	formatted = make([]string, 0, len(events))
	for _, event := range events {
		line := event.Format()

		// Append newlines if not present
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		formatted = append(formatted, line)
	}
	return
}
