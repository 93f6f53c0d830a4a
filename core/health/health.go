package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/messaging/core/logger"
)

// ErrNotReady is returned by Readiness when any check fails.
var ErrNotReady = errors.New("service is not ready")

// Check is a dependency check.
type Check func(ctx context.Context) error

// Named prefixes the errors of fn with name.
func Named(name string, fn func(context.Context) error) Check {
	return func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}

// Readiness runs every check in order. Failures are logged and joined under
// ErrNotReady; one failing check does not skip the rest.
func Readiness(ctx context.Context, log *slog.Logger, checks ...Check) error {
	var errs []error
	for _, check := range checks {
		if check == nil {
			continue
		}
		if err := check(ctx); err != nil {
			log.ErrorContext(ctx, "readiness check failed", logger.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrNotReady}, errs...)...)
	}
	return nil
}
