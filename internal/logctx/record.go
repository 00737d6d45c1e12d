package logctx

import (
	"gspnp/internal/global"
	"time"
)

// Buffers an event for the watcher when its level is within PrintLevel.
// Errors are kept at any level.
func (logger *Logger) record(level int, severity string, tags []string, message string) {
	stamp := time.Now()

	logger.mutex.Lock()
	defer logger.mutex.Unlock()

	if level > logger.PrintLevel && severity != global.ErrorLog {
		return
	}
	logger.queue = append(logger.queue, Event{
		Timestamp: stamp,
		Tags:      tags,
		Severity:  severity,
		Message:   message,
	})
	logger.cond.Signal()
}
