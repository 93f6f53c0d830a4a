package messaging

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/messaging/core/behavior"
	"github.com/dmitrymomot/messaging/core/notification"
	"github.com/dmitrymomot/messaging/core/request"
)

// Option configures a Messaging instance.
type Option func(*Messaging) error

// behaviorSlot builds a behavior once every option has been applied, so it
// can depend on the final store and logger.
type behaviorSlot func(m *Messaging) request.OpenBehavior

// WithConfig replaces the configuration loaded from the environment.
func WithConfig(cfg Config) Option {
	return func(m *Messaging) error {
		m.config = cfg
		m.configSet = true
		return nil
	}
}

// WithLogger sets the logger shared by the dispatcher, behaviors and publisher.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Messaging) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		m.logger = logger
		return nil
	}
}

// WithStore sets the notification outbox. The default is an in-memory store.
func WithStore(store notification.Store) Option {
	return func(m *Messaging) error {
		if store == nil {
			return errors.New("store cannot be nil")
		}
		m.store = store
		return nil
	}
}

// WithRequestModules installs request handler modules.
func WithRequestModules(modules ...request.Module) Option {
	return func(m *Messaging) error {
		m.requestModules = append(m.requestModules, modules...)
		return nil
	}
}

// WithNotificationModules installs notification handler modules.
func WithNotificationModules(modules ...notification.Module) Option {
	return func(m *Messaging) error {
		m.notificationModules = append(m.notificationModules, modules...)
		return nil
	}
}

// WithBehaviors appends pipeline behaviors. Behaviors run in the order they
// are added across all options, the first one outermost.
func WithBehaviors(behaviors ...request.OpenBehavior) Option {
	return func(m *Messaging) error {
		for _, b := range behaviors {
			if b == nil {
				return errors.New("behavior cannot be nil")
			}
			m.slots = append(m.slots, func(*Messaging) request.OpenBehavior { return b })
		}
		return nil
	}
}

// WithValidation adds the validation behavior at this position in the
// pipeline. register is called with the validator registry. Only the first
// WithValidation places the behavior; later ones just register validators.
func WithValidation(register ...func(*behavior.Validators)) Option {
	return func(m *Messaging) error {
		for _, fn := range register {
			fn(m.validators)
		}
		if m.validationAdded {
			return nil
		}
		m.validationAdded = true
		m.slots = append(m.slots, validationSlot)
		return nil
	}
}

// WithValidators registers validators without changing the pipeline. They
// take effect when validation is enabled by configuration or WithValidation.
func WithValidators(register ...func(*behavior.Validators)) Option {
	return func(m *Messaging) error {
		for _, fn := range register {
			fn(m.validators)
		}
		return nil
	}
}

// WithPerformanceLogging adds the performance behavior at this position in
// the pipeline. A zero threshold falls back to the configured one.
func WithPerformanceLogging(cfg behavior.PerformanceConfig) Option {
	return func(m *Messaging) error {
		m.performanceAdded = true
		m.slots = append(m.slots, func(m *Messaging) request.OpenBehavior {
			if cfg.MaxExpectedDuration <= 0 {
				cfg.MaxExpectedDuration = m.config.Performance.MaxExpectedDuration
			}
			return behavior.Performance(m.store, cfg, behavior.WithLogger(m.logger))
		})
		return nil
	}
}

// WithTracing adds the OpenTelemetry tracing behavior at this position.
func WithTracing() Option {
	return WithBehaviors(behavior.Tracing())
}

// WithMetrics registers request metrics with reg and adds the metrics
// behavior at this position.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(m *Messaging) error {
		metrics, err := behavior.NewRequestMetrics(reg)
		if err != nil {
			return err
		}
		m.metrics = metrics
		m.slots = append(m.slots, func(m *Messaging) request.OpenBehavior {
			return metrics.Behavior()
		})
		return nil
	}
}

func validationSlot(m *Messaging) request.OpenBehavior {
	return behavior.Validation(m.validators, behavior.WithLogger(m.logger))
}

func performanceSlot(m *Messaging) request.OpenBehavior {
	return behavior.Performance(m.store, m.config.Performance, behavior.WithLogger(m.logger))
}
