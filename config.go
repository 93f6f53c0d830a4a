package messaging

import (
	"time"

	"github.com/dmitrymomot/messaging/core/behavior"
	"github.com/dmitrymomot/messaging/core/notification"
)

// DefaultPublishInterval is how often Run drains the outbox by default.
const DefaultPublishInterval = 5 * time.Second

// Config holds the settings New reads from the environment.
type Config struct {
	Performance behavior.PerformanceConfig

	Validation         bool          `env:"MESSAGING_VALIDATION" envDefault:"true"`
	PerformanceLogging bool          `env:"MESSAGING_PERFORMANCE_LOGGING" envDefault:"true"`
	PublisherName      string        `env:"MESSAGING_PUBLISHER_NAME" envDefault:"NotificationPublisher"`
	PublishInterval    time.Duration `env:"MESSAGING_PUBLISH_INTERVAL" envDefault:"5s"`
}

// DefaultConfig returns the configuration used when nothing is set in the environment.
func DefaultConfig() Config {
	return Config{
		Performance:        behavior.PerformanceConfig{MaxExpectedDuration: behavior.DefaultMaxExpectedDuration},
		Validation:         true,
		PerformanceLogging: true,
		PublisherName:      notification.DefaultPublisherName,
		PublishInterval:    DefaultPublishInterval,
	}
}
