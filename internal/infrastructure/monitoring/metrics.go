package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the realtime layer.
type Metrics struct {
	// Connection metrics
	Connections  prometheus.Gauge
	Reconnects   prometheus.Counter
	AuthFailures prometheus.Counter

	// Channel metrics
	SubscriptionsActive  prometheus.Gauge
	SubscriptionFailures prometheus.Counter

	// Traffic metrics
	Frames        *prometheus.CounterVec
	SendsDropped  prometheus.Counter
	Notifications *prometheus.CounterVec

	startTime time.Time
}

// NewMetrics creates a metrics collector on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a metrics collector on the given registerer.
// Tests pass a fresh registry to avoid duplicate registration panics.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		Connections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hackmate_ws_connections",
				Help: "Number of active realtime connections",
			},
		),
		Reconnects: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hackmate_ws_reconnects_total",
				Help: "Total number of reconnect attempts",
			},
		),
		AuthFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hackmate_ws_auth_failures_total",
				Help: "Total number of handshake authentication failures",
			},
		),

		SubscriptionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hackmate_channel_subscriptions_active",
				Help: "Number of active channel subscriptions",
			},
		),
		SubscriptionFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hackmate_channel_subscription_failures_total",
				Help: "Total number of server-rejected channel subscriptions",
			},
		),

		Frames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hackmate_ws_frames_total",
				Help: "Total number of websocket frames",
			},
			[]string{"direction", "type"},
		),
		SendsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hackmate_sends_dropped_total",
				Help: "Total number of sends rejected while disconnected",
			},
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hackmate_notifications_total",
				Help: "Total number of personal notifications by type",
			},
			[]string{"type"},
		),
	}
}

// RecordFrame records a websocket frame in the given direction.
func (m *Metrics) RecordFrame(direction, frameType string) {
	m.Frames.WithLabelValues(direction, frameType).Inc()
}

// RecordNotification records a routed personal notification.
func (m *Metrics) RecordNotification(notificationType string) {
	m.Notifications.WithLabelValues(notificationType).Inc()
}

// Uptime returns time since the collector was created.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
