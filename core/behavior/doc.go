// Package behavior provides pipeline behaviors for the request dispatcher.
//
// Each constructor returns a request.OpenBehavior, which the dispatcher asks
// once per request signature whether it applies:
//
//	vs := behavior.NewValidators()
//	behavior.AddValidator(vs, validator.For[CreateUser](v))
//
//	reg := request.NewRegistry()
//	reg.Use(
//		behavior.Recover(),
//		behavior.Performance(store, behavior.PerformanceConfig{MaxExpectedDuration: time.Second}),
//		behavior.Validation(vs),
//	)
//
// Validation runs only for request types with at least one validator.
// Performance logs every request and stores a RequestExceededDuration
// notification in the outbox when a request takes longer than expected.
//
// # Observability
//
// Tracing starts an OpenTelemetry span per request. RequestMetrics records
// Prometheus request counts and durations:
//
//	metrics, err := behavior.NewRequestMetrics(prometheus.DefaultRegisterer)
//	if err != nil {
//		return err
//	}
//	reg.Use(behavior.Tracing(), metrics.Behavior())
//
// Both treat a failed outcome value as an error.
package behavior
