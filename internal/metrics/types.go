package metrics

import (
	"sync"
	"time"
)

// Time-sliced in-memory metric store
type Registry struct {
	mu      sync.RWMutex
	metrics map[time.Time]map[string]map[string]Metric // key0=time slice, key1=namespace, key2=name
}

type MetricType string

const (
	Counter MetricType = "counter" // events counted within the interval
	Gauge   MetricType = "gauge"   // point-in-time level
)

// Container for a metric and associated data
type Metric struct {
	Name        string // e.g. beacons_total, depth
	Description string
	Namespace   []string // e.g. "Responder/Handler"
	Value       MetricValue
	Type        MetricType
	Timestamp   time.Time // time when the metric was recorded
}

// Specific value of a metric
type MetricValue struct {
	Raw      interface{}   // uint64, float64
	Unit     string        // e.g., "count", "bytes"
	Interval time.Duration // measurement window
}

// JSON version
type JMetric struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Namespace   string       `json:"namespace"`
	Value       JMetricValue `json:"value"`
	Type        string       `json:"type"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type JMetricValue struct {
	Raw      string `json:"raw,omitempty"`
	Unit     string `json:"unit"`
	Interval string `json:"interval,omitempty"`
}

// Anything able to report its counters for one collection interval
type Collector interface {
	CollectMetrics(interval time.Duration) []Metric
}
