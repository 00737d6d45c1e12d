package metrics

import (
	"sort"
	"strings"
	"time"
)

// Exact or prefix namespace match. Empty query matches all.
func matchesNamespace(metricNS, queryNS []string) (matches bool) {
	if len(queryNS) > len(metricNS) {
		return
	}
	for i := range queryNS {
		if metricNS[i] != queryNS[i] {
			return
		}
	}
	matches = true
	return
}

// Returns all metrics matching name and namespace prefix, oldest slice first.
// Empty name or prefix matches everything; zero start/end leave the window open.
func (registry *Registry) Search(name string, namespacePrefix []string, start, end time.Time) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	var timestamps []time.Time
	for ts := range registry.metrics {
		if !start.IsZero() && ts.Before(start) {
			continue
		}
		if !end.IsZero() && ts.After(end) {
			continue
		}
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool {
		return timestamps[i].Before(timestamps[j])
	})

	for _, ts := range timestamps {
		nsMap := registry.metrics[ts]

		namespaces := make([]string, 0, len(nsMap))
		for nsStr := range nsMap {
			namespaces = append(namespaces, nsStr)
		}
		sort.Strings(namespaces)

		for _, nsStr := range namespaces {
			if !matchesNamespace(strings.Split(nsStr, "/"), namespacePrefix) {
				continue
			}
			for metricName, metric := range nsMap[nsStr] {
				if name == "" || metricName == name {
					results = append(results, metric)
				}
			}
		}
	}
	return
}

// Lists distinct metrics (no values or timestamps) matching the filters
func (registry *Registry) Discover(name, description string, namespacePrefix []string, unit string, metricType MetricType) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	seen := make(map[string]Metric)
	for _, nsMap := range registry.metrics {
		for nsStr, metricsMap := range nsMap {
			if !matchesNamespace(strings.Split(nsStr, "/"), namespacePrefix) {
				continue
			}

			for _, metric := range metricsMap {
				if name != "" && !strings.Contains(metric.Name, name) {
					continue
				}
				if description != "" && !strings.Contains(metric.Description, description) {
					continue
				}
				if unit != "" && metric.Value.Unit != unit {
					continue
				}
				if metricType != "" && metric.Type != metricType {
					continue
				}

				key := strings.Join([]string{nsStr, metric.Name, string(metric.Type), metric.Value.Unit}, "|")
				seen[key] = Metric{
					Name:        metric.Name,
					Description: metric.Description,
					Namespace:   metric.Namespace,
					Type:        metric.Type,
					Value:       MetricValue{Unit: metric.Value.Unit},
				}
			}
		}
	}

	results = make([]Metric, 0, len(seen))
	for _, metric := range seen {
		results = append(results, metric)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		return strings.Join(results[i].Namespace, "/") < strings.Join(results[j].Namespace, "/")
	})
	return
}
