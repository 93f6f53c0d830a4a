package behavior

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/messaging/core/logger"
)

type options struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a behavior.
type Option func(*options)

// WithLogger sets the behavior logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the time source used for measuring durations.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger: logger.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
