package notification

import (
	"time"

	"github.com/dmitrymomot/messaging/core/result"
)

// State is the processing state of a stored notification.
// The zero value means the notification has not been processed.
type State string

const (
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// ProcessingResult records the outcome of publishing a notification.
type ProcessingResult struct {
	State       State     `json:"state,omitempty"`
	ProcessedAt time.Time `json:"processed_at,omitzero"`
	ProcessedBy string    `json:"processed_by,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// NotProcessed is the result of a notification still waiting for delivery.
func NotProcessed() ProcessingResult {
	return ProcessingResult{State: StatePending}
}

// Succeeded records a successful delivery.
func Succeeded(by string, at time.Time) ProcessingResult {
	return ProcessingResult{State: StateSucceeded, ProcessedAt: at, ProcessedBy: by}
}

// Failed records a failed delivery.
func Failed(by string, at time.Time, message string) ProcessingResult {
	return ProcessingResult{State: StateFailed, ProcessedAt: at, ProcessedBy: by, Error: message}
}

// FromResult converts an operation outcome into a processing result.
func FromResult(by string, at time.Time, r result.Result) ProcessingResult {
	if r.IsSuccess() {
		return Succeeded(by, at)
	}
	return Failed(by, at, r.Err().Error())
}

// IsProcessed reports whether delivery was attempted.
func (p ProcessingResult) IsProcessed() bool {
	return p.State == StateSucceeded || p.State == StateFailed
}

// IsSuccessful reports whether delivery succeeded.
func (p ProcessingResult) IsSuccessful() bool {
	return p.State == StateSucceeded
}

// IsFailed reports whether delivery was attempted and failed.
func (p ProcessingResult) IsFailed() bool {
	return p.State == StateFailed
}
