package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"time"

	"github.com/dmitrymomot/messaging/core/logger"
	"github.com/dmitrymomot/messaging/core/result"
	"github.com/dmitrymomot/messaging/core/scope"
)

// DefaultPublisherName is recorded as ProcessedBy unless overridden.
const DefaultPublisherName = "NotificationPublisher"

// Publisher delivers pending notifications to their handlers and records the outcome.
type Publisher struct {
	store    Store
	registry *Registry
	name     string
	now      func() time.Time
	logger   *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithLogger sets the publisher logger.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithName sets the name recorded as ProcessedBy.
func WithName(name string) PublisherOption {
	return func(p *Publisher) {
		if name != "" {
			p.name = name
		}
	}
}

// WithClock sets the time source used for ProcessedAt. The default clock
// truncates to microseconds, the finest precision every store keeps.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPublisher creates a publisher draining store with handlers from registry.
func NewPublisher(store Store, registry *Registry, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:    store,
		registry: registry,
		name:     DefaultPublisherName,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the name recorded as ProcessedBy.
func (p *Publisher) Name() string { return p.name }

// Publish drains the pending set once. Each pending notification is delivered
// to every subscribed handler and marked with the outcome. Store errors abort
// the run; handler errors are recorded on the notification instead.
func (p *Publisher) Publish(ctx context.Context) error {
	pending, err := p.store.Pending(ctx)
	if err != nil {
		return fmt.Errorf("load pending notifications: %w", err)
	}

	p.logger.DebugContext(ctx, "publishing pending notifications",
		logger.Count("count", len(pending)))
	if len(pending) == 0 {
		return nil
	}

	sc := scope.New()
	ctx = scope.WithScope(ctx, sc)
	defer func() {
		if cerr := sc.Close(); cerr != nil {
			p.logger.WarnContext(ctx, "failed to close publish scope", logger.Error(cerr))
		}
	}()

	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		meta := n.Meta()
		res := p.deliver(ctx, sc, n)
		if err := p.store.MarkPublished(ctx, meta.ID, res); err != nil {
			return fmt.Errorf("mark notification %s as published: %w", meta.ID, err)
		}
	}

	return nil
}

func (p *Publisher) deliver(ctx context.Context, sc *scope.Scope, n Notification) ProcessingResult {
	meta := n.Meta()
	subs := p.registry.subscriptions(reflect.TypeOf(n))
	if len(subs) == 0 {
		p.logger.WarnContext(ctx, "no handlers registered for notification",
			logger.NotificationID(meta.ID),
			logger.NotificationType(TypeName(n)))
		return Failed(p.name, p.now(), NoHandlersMessage)
	}

	var failure error
	for _, sub := range subs {
		h := sub.resolve(sc)
		if err := safeHandle(ctx, h, n); err != nil {
			p.logger.ErrorContext(ctx, "notification handler failed",
				logger.NotificationID(meta.ID),
				logger.NotificationType(TypeName(n)),
				logger.Handler(h.name),
				logger.Error(err))
			failure = err
		}
	}

	if failure != nil {
		return Failed(p.name, p.now(), failureMessage(failure))
	}
	return Succeeded(p.name, p.now())
}

// failureMessage keeps the message of outcome errors and reports anything
// else as an unexpected error.
func failureMessage(err error) string {
	var (
		validation *result.ValidationError
		notFound   *result.NotFoundError
		domain     *result.DomainError
		unexpected *result.UnexpectedError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &notFound),
		errors.As(err, &domain), errors.As(err, &unexpected):
		return err.Error()
	default:
		return result.NewUnexpectedError(err).Error()
	}
}

// safeHandle runs a handler with panic recovery.
func safeHandle(ctx context.Context, h resolvedSubscription, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = result.NewUnexpectedError(fmt.Errorf("handler %s panicked: %v", h.name, r))
		}
	}()
	return h.call(ctx, n)
}
