// Central registry for storing time-based metrics and their associated data
package metrics

import (
	"fmt"
	"strings"
	"time"
)

// Creates new metric registry storage
func New() (new *Registry) {
	new = &Registry{
		metrics: make(map[time.Time]map[string]map[string]Metric),
	}
	return
}

// Counter shorthand used by collectors
func NewCounter(name, description string, namespace []string, count uint64, interval time.Duration, recorded time.Time) (metric Metric) {
	metric = Metric{
		Name:        name,
		Description: description,
		Namespace:   namespace,
		Value: MetricValue{
			Raw:      count,
			Unit:     "count",
			Interval: interval,
		},
		Type:      Counter,
		Timestamp: recorded,
	}
	return
}

// Gauge shorthand used by collectors
func NewGauge(name, description string, namespace []string, value float64, unit string, interval time.Duration, recorded time.Time) (metric Metric) {
	metric = Metric{
		Name:        name,
		Description: description,
		Namespace:   namespace,
		Value: MetricValue{
			Raw:      value,
			Unit:     unit,
			Interval: interval,
		},
		Type:      Gauge,
		Timestamp: recorded,
	}
	return
}

// Setup metrics map for the collection interval containing now
func (registry *Registry) NewTimeSlice(now time.Time, interval time.Duration) (timeSlice time.Time) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	timeSlice = now
	if interval > 0 {
		timeSlice = now.Truncate(interval)
	}
	if registry.metrics[timeSlice] == nil {
		registry.metrics[timeSlice] = make(map[string]map[string]Metric)
	}
	return
}

// Adds batch of metrics to an existing time slice.
// Gauges replace the previous value, counters are summed.
func (registry *Registry) Add(timeSlice time.Time, batch []Metric) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	slice := registry.metrics[timeSlice]
	if slice == nil {
		return
	}

	for _, metric := range batch {
		namespace := strings.Join(metric.Namespace, "/")
		if slice[namespace] == nil {
			slice[namespace] = make(map[string]Metric)
		}

		// Counters collected twice within one slice accumulate
		previous, exists := slice[namespace][metric.Name]
		if exists && metric.Type == Counter && previous.Type == Counter {
			prevCount, prevOK := previous.Value.Raw.(uint64)
			count, ok := metric.Value.Raw.(uint64)
			if prevOK && ok {
				metric.Value.Raw = prevCount + count
			}
		}
		slice[namespace][metric.Name] = metric
	}
}

// Deletes time slices older than maxAge relative to currentTime
func (registry *Registry) Prune(currentTime time.Time, maxAge time.Duration) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	for timeSlice := range registry.metrics {
		if currentTime.Sub(timeSlice) > maxAge {
			delete(registry.metrics, timeSlice)
		}
	}
}

// Runs every collector and stores the batch under one time slice
func (registry *Registry) Collect(now time.Time, interval time.Duration, collectors ...Collector) {
	timeSlice := registry.NewTimeSlice(now, interval)
	for _, collector := range collectors {
		registry.Add(timeSlice, collector.CollectMetrics(interval))
	}
}

// Converts internal metric type to export (JSON) metric
func (inMetric Metric) Convert() (outMetric JMetric) {
	outMetric.Name = inMetric.Name
	outMetric.Description = inMetric.Description
	outMetric.Namespace = strings.Join(inMetric.Namespace, "/")
	outMetric.Type = string(inMetric.Type)
	outMetric.Value.Unit = inMetric.Value.Unit

	if inMetric.Value.Interval > 0 {
		outMetric.Value.Interval = inMetric.Value.Interval.String()
	}
	if !inMetric.Timestamp.IsZero() {
		outMetric.Timestamp = inMetric.Timestamp.Format(time.RFC3339Nano)
	}
	if inMetric.Value.Raw != nil {
		outMetric.Value.Raw = fmt.Sprintf("%v", inMetric.Value.Raw)
	}
	return
}
