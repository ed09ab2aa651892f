package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics records outbound API traffic per marketplace role.
type ClientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	gated    *prometheus.CounterVec
}

// NewClientMetrics registers the client metrics on the provided registerer.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		return &ClientMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "market_client_requests_total",
		Help: "API requests issued by the marketplace client.",
	}, []string{"role", "method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "market_client_request_duration_seconds",
		Help:    "Duration of API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"role", "method"})
	gated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "market_client_auth_gate_rejections_total",
		Help: "Requests short-circuited because the required role was not signed in.",
	}, []string{"role"})
	reg.MustRegister(requests, duration, gated)
	return &ClientMetrics{
		requests: requests,
		duration: duration,
		gated:    gated,
	}
}

// ObserveRequest records one completed request. A zero status marks a
// transport failure.
func (c *ClientMetrics) ObserveRequest(role, method string, status int, elapsed time.Duration) {
	if c == nil || c.requests == nil {
		return
	}
	role = normalizeLabel(role)
	c.requests.WithLabelValues(role, method, statusClass(status)).Inc()
	c.duration.WithLabelValues(role, method).Observe(elapsed.Seconds())
}

// IncGated counts a request rejected locally by the authentication gate.
func (c *ClientMetrics) IncGated(role string) {
	if c == nil || c.gated == nil {
		return
	}
	c.gated.WithLabelValues(normalizeLabel(role)).Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
