// Package messaging assembles a request dispatcher, its pipeline behaviors
// and a notification publisher that share one outbox store.
//
//	m, err := messaging.New(
//		messaging.WithLogger(log),
//		messaging.WithStore(pgoutbox.New(pool)),
//		messaging.WithRequestModules(billing.Requests()),
//		messaging.WithNotificationModules(billing.Notifications()),
//		messaging.WithValidators(func(vs *behavior.Validators) {
//			behavior.AddValidator(vs, validator.For[billing.CreateInvoice](validator.New()))
//		}),
//	)
//	if err != nil {
//		return err
//	}
//
//	out, err := messaging.Send(ctx, m, billing.CreateInvoice{Amount: 100})
//
// Publish drains the outbox once. Run keeps draining it on an interval:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(func() error { return m.Run(ctx) })
//
// # Configuration
//
// Without WithConfig, New reads Config from the environment:
//
//	MESSAGING_VALIDATION             enable the validation behavior (default true)
//	MESSAGING_PERFORMANCE_LOGGING    enable the performance behavior (default true)
//	MESSAGING_MAX_EXPECTED_DURATION  slow request threshold (default 5s)
//	MESSAGING_PUBLISHER_NAME         ProcessedBy value of published notifications
//	MESSAGING_PUBLISH_INTERVAL       how often Run publishes (default 5s)
//
// Behaviors enabled by configuration run outermost, validation first.
// Behaviors added with WithValidation, WithPerformanceLogging and
// WithBehaviors run in the order the options are given.
package messaging
