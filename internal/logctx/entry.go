// Central logging system. Buffers messages and writes to configured outputs
package logctx

import (
	"context"
	"fmt"
	"gspnp/internal/global"
	"strings"
	"sync"
	"time"
)

// Logger Constructor
func NewLogger(id string, logLevel int, done <-chan struct{}) (logger *Logger) {
	logger = &Logger{
		ID:         id,
		CreatedAt:  time.Now(),
		queue:      make([]Event, 0),
		Done:       done,
		PrintLevel: logLevel,
		wg:         &sync.WaitGroup{},
	}
	logger.cond = sync.NewCond(&logger.mutex)
	return
}

// Logger Constructor.
// Embeds logger in returned context using provided context as base.
func New(baseCtx context.Context, id string, logLevel int, done <-chan struct{}) (ctxLogger context.Context) {
	logger := NewLogger(id, logLevel, done)
	ctxLogger = WithLogger(baseCtx, logger)
	return
}

// Attach the logger to context
func WithLogger(ctx context.Context, logger *Logger) (ctxLogger context.Context) {
	ctxLogger = context.WithValue(ctx, global.LoggerKey, logger)
	return
}

// Change the loggers level
func SetLogLevel(ctx context.Context, newLevel int) {
	logger := GetLogger(ctx)
	if logger != nil {
		logger.mutex.Lock()
		defer logger.mutex.Unlock()
		logger.PrintLevel = newLevel
	}
}

// Current print level of the context logger (None when no logger is attached)
func GetPrintLevel(ctx context.Context) (level int) {
	logger := GetLogger(ctx)
	if logger == nil {
		return
	}
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	level = logger.PrintLevel
	return
}

// Watcher output drops the timestamp prefix (for outputs that stamp lines themselves)
func (logger *Logger) OmitTimestamps(omit bool) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.stampless = omit
}

// Extracts Logger from context or returns nil
func GetLogger(ctx context.Context) (logger *Logger) {
	logger, ok := ctx.Value(global.LoggerKey).(*Logger)
	if ok {
		return
	}
	logger = nil
	return
}

// Entry for logging events
func LogEvent(ctx context.Context, eventLevel int, severity string, message string, vars ...any) {
	// Retrieve current tag list
	tags := GetTagList(ctx)

	// Get logger pointer
	logger := GetLogger(ctx)
	if logger != nil {
		var newMsg string

		// vars might be empty - check to omit formatting
		if len(vars) == 0 || !strings.Contains(message, "%") && !strings.Contains(message, `%%`) {
			// Avoiding 'extra' print to log entries
			newMsg = message
		} else {
			newMsg = fmt.Sprintf(message, vars...)
		}
		logger.record(eventLevel, severity, tags, newMsg)
	}
}
