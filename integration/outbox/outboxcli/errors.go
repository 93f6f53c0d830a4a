package outboxcli

import "errors"

var (
	ErrUnknownBackend = errors.New("unknown outbox backend")
	ErrInvalidSince   = errors.New("since must be a duration or an RFC 3339 time")
	ErrGetUnsupported = errors.New("backend does not support lookups by id")
)
