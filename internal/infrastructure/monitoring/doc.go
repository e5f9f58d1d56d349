/*
Package monitoring provides Prometheus metrics for the realtime layer.

# Overview

Tracks connection lifecycle (connects, reconnects, auth failures), channel
subscriptions, frame traffic, dropped sends, and routed notifications. The
dev broker exposes the collected metrics at /metrics via promhttp.

# Usage

	metrics := monitoring.NewMetrics()
	metrics.Connections.Inc()
	metrics.RecordFrame("in", "message")

Tests should use NewMetricsWith(prometheus.NewRegistry()) to avoid duplicate
registration on the default registry.
*/
package monitoring
