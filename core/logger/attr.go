package logger

import (
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Attribute helpers use the empty Attr pattern for nil safety.
// slog drops empty attributes, so log.Info("msg", logger.Error(err)) is safe with a nil err.

// Group creates a group of attributes under a single key.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// ============================================================================
// Errors
// ============================================================================

// Errors groups multiple non-nil errors under the key "errors".
// Uses index-based keys to preserve error order. Returns empty Attr for all nil errors.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// ============================================================================
// Timing
// ============================================================================

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed logs the duration since start.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// Threshold creates an attribute for an expected upper bound on a duration.
func Threshold(d time.Duration) slog.Attr {
	return slog.Duration("threshold", d)
}

// ============================================================================
// Requests
// ============================================================================

// Request creates an attribute for a request type name.
func Request(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("request", name)
}

// Response creates an attribute for a response type name.
func Response(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("response", name)
}

// Handler creates an attribute for a handler name.
func Handler(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("handler", name)
}

// ============================================================================
// Notifications
// ============================================================================

// NotificationID creates an attribute for a notification id.
func NotificationID(id uuid.UUID) slog.Attr {
	if id == uuid.Nil {
		return slog.Attr{}
	}
	return slog.String("notification_id", id.String())
}

// NotificationType creates an attribute for a notification type name.
func NotificationType(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("notification_type", name)
}

// ============================================================================
// Generic Metadata
// ============================================================================

// Component creates an attribute for component names.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Count creates a generic counter attribute.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Key creates a generic key-value attribute.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

// RetryCount creates an attribute for retry attempts.
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// ============================================================================
// Debugging
// ============================================================================

// Stack captures the current goroutine stack.
func Stack() slog.Attr {
	const size = 64 << 10
	buf := make([]byte, size)
	buf = buf[:runtime.Stack(buf, false)]
	return slog.String("stack", string(buf))
}

// Panic creates an attribute for a recovered panic value.
func Panic(v any) slog.Attr {
	if v == nil {
		return slog.Attr{}
	}
	return slog.Any("panic", v)
}
