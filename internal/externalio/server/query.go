package server

import (
	"context"
	"gspnp/internal/global"
	"gspnp/internal/metrics"
	"net/http"
	"strings"
	"time"
)

// Metric values within a time window (default: last minute)
func handleData(ctx context.Context, search DataSearcher, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	namespace := namespaceFromPath(clientRequest.URL.Path, global.DataPath)
	name := clientRequest.FormValue("name")
	now := time.Now()

	start := now.Add(-1 * time.Minute)
	rawStart := clientRequest.FormValue("starttime")
	switch {
	case rawStart == "":
	case rawStart[0] == '-' || rawStart[0] == '+':
		offset, err := time.ParseDuration(rawStart)
		if err != nil {
			serverResponder.WriteHeader(http.StatusBadRequest)
			return
		}
		start = now.Add(offset)
	default:
		parsed, err := time.Parse(time.RFC3339Nano, rawStart)
		if err != nil {
			serverResponder.WriteHeader(http.StatusBadRequest)
			return
		}
		start = parsed
	}

	end := now
	rawEnd := clientRequest.FormValue("endtime")
	if rawEnd != "" && rawEnd != "now" {
		parsed, err := time.Parse(time.RFC3339Nano, rawEnd)
		if err != nil {
			serverResponder.WriteHeader(http.StatusBadRequest)
			return
		}
		end = parsed
	}

	respondMetrics(ctx, serverResponder, search(name, namespace, start, end))
}

// Metric names and descriptions without values
func handleDiscovery(ctx context.Context, discover Discoverer, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	namespace := namespaceFromPath(clientRequest.URL.Path, global.DiscoveryPath)

	rawType := strings.ToLower(clientRequest.FormValue("type"))
	metricType := metrics.MetricType(rawType)
	switch metricType {
	case "", metrics.Counter, metrics.Gauge:
	default:
		serverResponder.WriteHeader(http.StatusBadRequest)
		return
	}

	results := discover(clientRequest.FormValue("name"),
		clientRequest.FormValue("description"),
		namespace,
		clientRequest.FormValue("unit"),
		metricType)
	respondMetrics(ctx, serverResponder, results)
}

func respondMetrics(ctx context.Context, serverResponder http.ResponseWriter, rawResults []metrics.Metric) {
	if len(rawResults) == 0 {
		jResp(ctx, serverResponder, Jerror{Msg: "Search returned no results"})
		return
	}

	results := make([]metrics.JMetric, 0, len(rawResults))
	for _, rawResult := range rawResults {
		results = append(results, rawResult.Convert())
	}
	jResp(ctx, serverResponder, results)
}
