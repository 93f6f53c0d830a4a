package messaging

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/messaging/core/behavior"
	"github.com/dmitrymomot/messaging/core/config"
	"github.com/dmitrymomot/messaging/core/logger"
	"github.com/dmitrymomot/messaging/core/notification"
	"github.com/dmitrymomot/messaging/core/request"
)

// Messaging wires a request dispatcher and a notification publisher around
// one outbox store.
type Messaging struct {
	config    Config
	configSet bool
	logger    *slog.Logger
	store     notification.Store

	requestModules      []request.Module
	notificationModules []notification.Module
	validators          *behavior.Validators
	slots               []behaviorSlot
	validationAdded     bool
	performanceAdded    bool
	metrics             *behavior.RequestMetrics

	dispatcher *request.Dispatcher
	publisher  *notification.Publisher
}

// New builds a Messaging instance. Configuration is loaded from the
// environment unless WithConfig is given. When enabled by configuration and
// not added explicitly, validation and performance logging become the two
// outermost behaviors.
func New(opts ...Option) (*Messaging, error) {
	m := &Messaging{
		logger:     logger.New(),
		validators: behavior.NewValidators(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if !m.configSet {
		if err := config.Load(&m.config); err != nil {
			return nil, err
		}
	}
	if m.store == nil {
		m.store = notification.NewMemoryStore()
	}

	var defaults []behaviorSlot
	if m.config.Validation && !m.validationAdded {
		defaults = append(defaults, validationSlot)
	}
	if m.config.PerformanceLogging && !m.performanceAdded {
		defaults = append(defaults, performanceSlot)
	}
	slots := append(defaults, m.slots...)

	requests := request.NewRegistry()
	requests.Install(m.requestModules...)
	for _, slot := range slots {
		requests.Use(slot(m))
	}
	m.dispatcher = request.NewDispatcher(requests, request.WithLogger(m.logger))

	notifications := notification.NewRegistry()
	notifications.Install(m.notificationModules...)
	m.publisher = notification.NewPublisher(m.store, notifications,
		notification.WithLogger(m.logger),
		notification.WithName(m.config.PublisherName),
	)

	return m, nil
}

// Send dispatches req through m's dispatcher.
func Send[R any](ctx context.Context, m *Messaging, req request.Request[R]) (R, error) {
	return request.Send(ctx, m.dispatcher, req)
}

// Notify stores n in the outbox for the next Publish.
func (m *Messaging) Notify(ctx context.Context, n notification.Notification) error {
	return m.store.Store(ctx, n)
}

// Publish delivers every pending notification once.
func (m *Messaging) Publish(ctx context.Context) error {
	return m.publisher.Publish(ctx)
}

// Run publishes pending notifications every Config.PublishInterval until ctx
// is done.
func (m *Messaging) Run(ctx context.Context) error {
	interval := m.config.PublishInterval
	if interval <= 0 {
		interval = DefaultPublishInterval
	}
	return m.publisher.Run(ctx, interval)
}

// Config returns the configuration the instance was built with.
func (m *Messaging) Config() Config { return m.config }

// Dispatcher returns the request dispatcher used by Send.
func (m *Messaging) Dispatcher() *request.Dispatcher { return m.dispatcher }

// Publisher returns the publisher used by Publish and Run.
func (m *Messaging) Publisher() *notification.Publisher { return m.publisher }

// Store returns the notification outbox.
func (m *Messaging) Store() notification.Store { return m.store }

// Validators returns the validator registry shared by the validation behavior.
func (m *Messaging) Validators() *behavior.Validators { return m.validators }

// Metrics returns the collectors added by WithMetrics, or nil.
func (m *Messaging) Metrics() *behavior.RequestMetrics { return m.metrics }
