package upstream

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records calls made to the PassMais API.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "passmais",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total requests sent to the PassMais API",
		}, []string{"endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "passmais",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of PassMais API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// Observe records one request. status 0 means the request never got a response.
func (m *Metrics) Observe(endpoint string, status int, seconds float64) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(endpoint, label).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(seconds)
}
