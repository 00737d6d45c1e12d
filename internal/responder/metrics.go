package responder

import (
	"gspnp/internal/calc"
	"gspnp/internal/global"
	"gspnp/internal/metrics"
	"time"
)

func (handler *Handler) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	counters := []struct {
		name        string
		description string
		counter     interface{ Swap(uint64) uint64 }
	}{
		{"malformed_total", "Datagrams that could not be parsed", &handler.Metrics.Malformed},
		{"status_total", "Status responses received from devices", &handler.Metrics.Status},
		{"ignored_total", "Requests for other methods or event packages", &handler.Metrics.Ignored},
		{"foreign_vendor_total", "ua-profile beacons from other vendors", &handler.Metrics.ForeignVendor},
		{"beacons_total", "Grandstream ua-profile beacons", &handler.Metrics.Beacons},
		{"replies_total", "Provisioning replies queued", &handler.Metrics.Replies},
		{"reply_failures_total", "Beacons that could not be answered", &handler.Metrics.ReplyFailures},
	}

	for _, entry := range counters {
		collection = append(collection, metrics.NewCounter(entry.name, entry.description,
			handler.Namespace, entry.counter.Swap(0), interval, recordTime))
	}
	return
}

const dispatchTrim float64 = 0.10

func (daemon *Daemon) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()
	namespace := []string{global.NSResponder, global.NSTransport}

	collection = []metrics.Metric{
		metrics.NewCounter("received_total", "Datagrams read from the socket",
			namespace, daemon.Metrics.Received.Swap(0), interval, recordTime),
		metrics.NewCounter("read_errors_total", "Failed socket reads",
			namespace, daemon.Metrics.ReadErrors.Swap(0), interval, recordTime),
	}

	loopNS := []string{global.NSResponder, global.NSLoop}
	collection = append(collection,
		metrics.NewCounter("panics_total", "Callbacks recovered by the loop guard",
			loopNS, daemon.loop.Metrics.Panics.Swap(0), interval, recordTime),
		metrics.NewCounter("iterations_total", "Event loop iterations",
			loopNS, daemon.loop.Metrics.Iterations.Swap(0), interval, recordTime),
		metrics.NewCounter("poll_errors_total", "Failed readiness waits",
			loopNS, daemon.loop.Metrics.PollErrors.Swap(0), interval, recordTime),
	)

	// Trimmed so one slow burst does not dominate the interval
	samples := daemon.loop.DrainDispatchTimes()
	if len(samples) > 0 {
		collection = append(collection, metrics.NewGauge("dispatch_time_mean", "Trimmed mean socket callback duration",
			loopNS, calc.TrimmedMeanFloat64(samples, dispatchTrim), "microseconds", interval, recordTime))
	}
	return
}
