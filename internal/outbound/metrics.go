package outbound

import (
	"gspnp/internal/metrics"
	"time"
)

func (queue *Queue) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	// Read and clear
	queued := queue.Metrics.Queued.Swap(0)
	sent := queue.Metrics.Sent.Swap(0)
	sendErrors := queue.Metrics.SendErrors.Swap(0)
	dropped := queue.Metrics.Dropped.Swap(0)
	depth := queue.Metrics.Depth.Load()

	recordTime := time.Now()

	collection = []metrics.Metric{
		metrics.NewCounter("queued_total", "Datagrams accepted into the outbound queue in the interval",
			queue.Namespace, queued, interval, recordTime),
		metrics.NewCounter("sent_total", "Datagrams handed to the socket in the interval",
			queue.Namespace, sent, interval, recordTime),
		metrics.NewCounter("send_errors_total", "Datagrams dropped after a socket error in the interval",
			queue.Namespace, sendErrors, interval, recordTime),
		metrics.NewCounter("dropped_total", "Datagrams refused for exceeding the queue memory budget in the interval",
			queue.Namespace, dropped, interval, recordTime),
		{
			Name:        "depth",
			Description: "Datagrams waiting for the socket to become writable",
			Namespace:   queue.Namespace,
			Value: metrics.MetricValue{
				Raw:      depth,
				Unit:     "count",
				Interval: interval,
			},
			Type:      metrics.Gauge,
			Timestamp: recordTime,
		},
	}
	return
}
