package notification

import "errors"

// NoHandlersMessage is recorded for notifications published without subscribers.
const NoHandlersMessage = "No handlers registered for this notification type."

var (
	// ErrNotFound is returned when a notification id is unknown to the store.
	ErrNotFound = errors.New("notification not found")

	// ErrInvalidState is returned when a stored notification cannot carry a processing result.
	ErrInvalidState = errors.New("notification cannot carry a processing result")

	// ErrNilNotification is returned when a nil notification is stored.
	ErrNilNotification = errors.New("notification cannot be nil")

	// ErrMissingID is returned when a notification without an id is stored.
	// Build notifications with NewBase.
	ErrMissingID = errors.New("notification has no id")

	// ErrUnknownType is returned when decoding a notification type that was never registered.
	ErrUnknownType = errors.New("unknown notification type")

	// ErrInvalidPayload is returned when an encoded notification cannot be decoded.
	ErrInvalidPayload = errors.New("invalid notification payload")

	// ErrInvalidInterval is returned by Publisher.Run for a non-positive interval.
	ErrInvalidInterval = errors.New("publish interval must be positive")
)
