// Package outboxcli implements outboxctl, the operator command line for
// notification outboxes.
//
// Every stored notification can be listed, shown and requeued. Types the
// binary does not register come back as notification.Raw and print with their
// stored type name and body. Registering a type only matters to code that
// needs the concrete Go value:
//
//	func main() {
//		notification.RegisterType[billing.InvoicePaid]()
//		outboxcli.Execute()
//	}
package outboxcli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/messaging/core/logger"
)

type settings struct {
	backend string
	timeout time.Duration
	json    bool
	verbose bool

	open Opener
	out  io.Writer
}

// Option configures the root command.
type Option func(*settings)

// WithOpener replaces OpenFromEnv.
func WithOpener(open Opener) Option {
	return func(s *settings) {
		if open != nil {
			s.open = open
		}
	}
}

// WithOutput sets where command results are written.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.out = w
		}
	}
}

// NewRootCommand creates the outboxctl command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	s := &settings{open: OpenFromEnv, out: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}

	root := &cobra.Command{
		Use:   "outboxctl",
		Short: "Inspect and maintain notification outboxes",
		Long: `outboxctl works with the notification outbox stored in PostgreSQL, Redis or MongoDB.
Connection settings come from the environment (PG_CONN_URL, REDIS_URL, MONGODB_URL).

Examples:
  outboxctl migrate --backend pg
  outboxctl pending --backend redis
  outboxctl failed --since 24h --json
  outboxctl requeue 0192f0c4-6f1e-7c3a-9d62-0e7d3b5a9c11`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&s.backend, "backend", envOr("OUTBOX_BACKEND", BackendPostgres),
		"Outbox backend: pg, redis or mongo")
	root.PersistentFlags().DurationVar(&s.timeout, "timeout", 30*time.Second,
		"Timeout for the whole command")
	root.PersistentFlags().BoolVar(&s.json, "json", false,
		"Print notifications as JSON envelopes, one per line")
	root.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(newMigrateCommand(s))
	root.AddCommand(newHealthCommand(s))
	root.AddCommand(newPendingCommand(s))
	root.AddCommand(newFailedCommand(s))
	root.AddCommand(newShowCommand(s))
	root.AddCommand(newRequeueCommand(s))

	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withBackend opens the selected backend, runs fn and closes it.
func (s *settings) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b *Backend) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), s.timeout)
	defer cancel()

	b, err := s.open(ctx, s.backend, s.logger())
	if err != nil {
		return fmt.Errorf("open %s outbox: %w", s.backend, err)
	}
	defer func() {
		if b.Close != nil {
			_ = b.Close()
		}
	}()

	return fn(ctx, b)
}

func (s *settings) logger() *slog.Logger {
	level := slog.LevelInfo
	if s.verbose {
		level = slog.LevelDebug
	}
	return logger.New(
		logger.WithTextFormatter(),
		logger.WithLevel(level),
		logger.WithOutput(os.Stderr),
		logger.WithAttr(logger.Component("outboxctl")),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
