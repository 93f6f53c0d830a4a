package behavior

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/messaging/core/request"
	"github.com/dmitrymomot/messaging/core/scope"
)

const metricsNamespace = "messaging"

// RequestMetrics holds the Prometheus collectors of the metrics behavior.
type RequestMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewRequestMetrics creates the collectors and registers them with reg.
func NewRequestMetrics(reg prometheus.Registerer) (*RequestMetrics, error) {
	m := &RequestMetrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "request_duration_seconds",
				Help:      "Request handling duration distribution",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"request", "status"},
		),
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Total number of dispatched requests by type and status",
			},
			[]string{"request", "status"},
		),
	}

	for _, c := range []prometheus.Collector{m.duration, m.total} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Total returns the counter for one request type and status ("success" or "error").
func (m *RequestMetrics) Total(requestType, status string) prometheus.Counter {
	return m.total.WithLabelValues(requestType, status)
}

// Behavior returns a behavior recording a duration sample and a count for
// every request. Failed outcomes count as errors.
func (m *RequestMetrics) Behavior(opts ...Option) request.OpenBehavior {
	o := newOptions(opts)
	return func(sig request.Signature) request.BehaviorConstructor {
		name := sig.Request.String()
		b := request.BehaviorFunc(func(ctx context.Context, req any, next request.Next) (any, error) {
			start := o.now()
			out, err := next(ctx)
			elapsed := o.now().Sub(start)

			status := "success"
			if failureOf(out, err) != nil {
				status = "error"
			}
			m.duration.WithLabelValues(name, status).Observe(elapsed.Seconds())
			m.total.WithLabelValues(name, status).Inc()

			return out, err
		})
		return func(*scope.Scope) request.Behavior { return b }
	}
}
