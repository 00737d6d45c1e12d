package beats

import (
	"gspnp/internal/metrics"
	"time"
)

func (exporter *Exporter) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()
	collection = []metrics.Metric{
		metrics.NewGauge("backlog_depth", "Beacons waiting to be sent",
			exporter.Namespace, float64(exporter.Metrics.Depth.Load()), "count", interval, recordTime),
		metrics.NewCounter("published_total", "Beacons accepted into the export backlog",
			exporter.Namespace, exporter.Metrics.Published.Swap(0), interval, recordTime),
		metrics.NewCounter("dropped_total", "Beacons refused because the export backlog was full",
			exporter.Namespace, exporter.Metrics.Dropped.Swap(0), interval, recordTime),
		metrics.NewCounter("sent_total", "Events acknowledged by the beats endpoint",
			exporter.Namespace, exporter.Metrics.Sent.Swap(0), interval, recordTime),
		metrics.NewCounter("errors_total", "Failed sends to the beats endpoint",
			exporter.Namespace, exporter.Metrics.Errors.Swap(0), interval, recordTime),
	}
	return
}
