package beats

import (
	"gspnp/internal/sipmsg"
	"sync/atomic"
)

// Batch writer to a beats (lumberjack v2) endpoint
type Sink interface {
	Send(events []interface{}) (acked int, err error)
	Close() error
}

// Ships accepted beacons off the event loop goroutine
type Exporter struct {
	Namespace []string
	endpoint  string
	sink      Sink
	dial      func() (Sink, error)
	events    chan sipmsg.BeaconInfo
	done      chan struct{}
	Metrics   MetricStorage
}

type MetricStorage struct {
	Depth     atomic.Uint64 // beacons waiting in the backlog
	Published atomic.Uint64 // beacons accepted into the backlog
	Dropped   atomic.Uint64 // beacons refused because the backlog was full
	Sent      atomic.Uint64 // events acknowledged by the endpoint
	Errors    atomic.Uint64 // failed sends
}
