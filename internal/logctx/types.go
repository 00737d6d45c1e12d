package logctx

import (
	"sync"
	"time"
)

// One buffered log line
type Event struct {
	Timestamp time.Time
	Severity  string
	Tags      []string
	Message   string
}

// Buffers events from every goroutine until a watcher prints them
type Logger struct {
	ID         string
	CreatedAt  time.Time
	queue      []Event    // pending events, oldest first
	mutex      sync.Mutex // guards queue and PrintLevel
	cond       *sync.Cond // wakes the watcher on record
	Done       <-chan struct{}
	PrintLevel int             // highest verbosity recorded
	stampless  bool            // Watcher output without timestamps (journald adds its own)
	wg         *sync.WaitGroup // Holds main execution threads until log watchers are done handling events
}

// Tracks repeated messages for watcher output suppression
type dedupState struct {
	lastMsg          string
	repeatCount      int
	lastSuppressTime time.Time
}
