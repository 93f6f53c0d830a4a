package notification

import (
	"context"
	"time"

	"github.com/dmitrymomot/messaging/core/logger"
)

// Run publishes immediately and then once per interval until ctx is done.
// Publish errors are logged and the loop keeps going. Run returns nil when
// ctx is cancelled, so it can be used directly with errgroup.
func (p *Publisher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	p.logger.InfoContext(ctx, "publisher started",
		logger.Component(p.name),
		logger.Duration(interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.Publish(ctx); err != nil && ctx.Err() == nil {
			p.logger.ErrorContext(ctx, "failed to publish notifications",
				logger.Component(p.name),
				logger.Error(err))
		}

		select {
		case <-ctx.Done():
			p.logger.InfoContext(context.WithoutCancel(ctx), "publisher stopped",
				logger.Component(p.name))
			return nil
		case <-ticker.C:
		}
	}
}
