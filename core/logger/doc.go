// Package logger builds slog loggers for the messaging runtime and provides
// attribute helpers for the values the runtime logs: request and response
// types, handler names, notification ids and timings.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/messaging/core/logger"
//
//	log := logger.New(
//		logger.WithDevelopment("billing"),
//		logger.WithLevel(slog.LevelDebug),
//	)
//
//	log.Info("request handled",
//		logger.Request("billing.CreateInvoice"),
//		logger.Duration(time.Since(start)),
//	)
//
// # Environment Configurations
//
//	// Development: text format, debug level, stdout
//	devLogger := logger.New(logger.WithDevelopment("billing"))
//
//	// Production: JSON format, info level, stdout
//	prodLogger := logger.New(logger.WithProduction("billing"))
//
// # Context Extractors
//
// Extractors add attributes taken from the context of each log call:
//
//	func tenantExtractor(ctx context.Context) (slog.Attr, bool) {
//		if id, ok := ctx.Value(tenantKey{}).(string); ok {
//			return slog.String("tenant_id", id), true
//		}
//		return slog.Attr{}, false
//	}
//
//	log := logger.New(
//		logger.WithProduction("billing"),
//		logger.WithContextExtractors(tenantExtractor),
//	)
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for nil or empty input, which slog
// drops, so callers never need nil checks:
//
//	log.Error("notification handler failed",
//		logger.NotificationID(n.Meta().ID),
//		logger.Error(err),
//	)
package logger
