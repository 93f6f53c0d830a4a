// Package health runs dependency checks for outbox backends and the
// processes that publish from them.
//
// Checks follow the func(context.Context) error signature returned by the
// integration packages:
//
//	err := health.Readiness(ctx, logger,
//		health.Named("postgres", pg.Healthcheck(pool)),
//		health.Named("redis", redis.Healthcheck(client)),
//	)
//	if err != nil {
//		return err // wraps ErrNotReady
//	}
package health
