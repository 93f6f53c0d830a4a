// Package notification implements a notification outbox and its publisher.
//
// A notification is a fire-and-forget message describing something that
// already happened. It is written to a Store first and delivered later by a
// Publisher, which records the outcome on the stored entry so failed
// deliveries can be audited and retried.
//
// Notification types embed Base:
//
//	type UserRegistered struct {
//		notification.Base
//		Email string `json:"email"`
//	}
//
//	n := UserRegistered{Base: notification.NewBase("users"), Email: "a@b.c"}
//	if err := store.Store(ctx, n); err != nil {
//		return err
//	}
//
// Handlers subscribe per concrete type:
//
//	reg := notification.NewRegistry()
//	notification.SubscribeFunc(reg, func(ctx context.Context, n UserRegistered) error {
//		return mailer.SendWelcome(ctx, n.Email)
//	})
//
//	pub := notification.NewPublisher(store, reg, notification.WithLogger(logger))
//	if err := pub.Publish(ctx); err != nil {
//		return err
//	}
//
// # Outcomes
//
// Every drained notification ends in one of two states. A notification with
// no subscribers fails with NoHandlersMessage. All subscribers run in
// registration order even after one fails; the last failure becomes the
// recorded error. A panicking handler is recovered and recorded as an
// unexpected error.
//
// # Durable stores
//
// MemoryStore keeps entries in process memory. Durable implementations live
// under integration/outbox and use Encode and DecodeStored with the type
// registry populated by RegisterType. Entries of unregistered types decode to
// Raw; a publisher records them as having no handlers.
//
// Every store rejects notifications that fail Validate: nil values, entries
// without an id (build them with NewBase) and types that cannot reach an
// embedded Base.
package notification
