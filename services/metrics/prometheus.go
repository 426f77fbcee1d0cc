// Package metricsvc exports fetch engine metrics to Prometheus.
package metricsvc

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/micky-code/school-management-system-SMS--sub000/core/fetch"
)

type Prometheus struct {
	attempts   *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	mockServed *prometheus.CounterVec
}

var _ fetch.Recorder = (*Prometheus)(nil)

// NewPrometheus registers the fetch metrics on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_fetch_attempts_total",
				Help: "Network attempts of the fetch engine, per tier and outcome.",
			},
			[]string{"tier", "resource", "outcome"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sms_fetch_attempt_duration_seconds",
				Help:    "Latency of the fetch engine attempts in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tier"},
		),
		mockServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_fetch_mock_served_total",
				Help: "Reads answered with fallback data because every live tier failed.",
			},
			[]string{"resource"},
		),
	}
	for _, c := range []prometheus.Collector{p.attempts, p.durations, p.mockServed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ObserveAttempt(tier, resource, outcome string, d time.Duration) {
	p.attempts.WithLabelValues(tier, resource, outcome).Inc()
	p.durations.WithLabelValues(tier).Observe(d.Seconds())
}

func (p *Prometheus) ObserveMock(resource string) {
	p.mockServed.WithLabelValues(resource).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
