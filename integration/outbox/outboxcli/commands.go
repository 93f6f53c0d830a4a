package outboxcli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/messaging/core/health"
	"github.com/dmitrymomot/messaging/core/notification"
)

type getter interface {
	Get(ctx context.Context, id uuid.UUID) (notification.Notification, error)
}

func newMigrateCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the outbox schema",
		Long:  `Apply outbox migrations (pg) or create indexes (mongo). Redis needs no schema.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withBackend(cmd, func(ctx context.Context, b *Backend) error {
				if b.Migrate == nil {
					return nil
				}
				if err := b.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate %s outbox: %w", s.backend, err)
				}
				fmt.Fprintf(s.out, "%s outbox is up to date\n", s.backend)
				return nil
			})
		},
	}
}

func newHealthCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the outbox backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withBackend(cmd, func(ctx context.Context, b *Backend) error {
				if err := health.Readiness(ctx, s.logger(), b.Health); err != nil {
					return err
				}
				fmt.Fprintf(s.out, "%s outbox is ready\n", s.backend)
				return nil
			})
		},
	}
}

func newPendingCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List notifications waiting to be published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withBackend(cmd, func(ctx context.Context, b *Backend) error {
				items, err := b.Store.Pending(ctx)
				if err != nil {
					return err
				}
				return s.print(items)
			})
		},
	}
}

func newFailedCommand(s *settings) *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "failed",
		Short: "List notifications whose delivery failed",
		Long: `List notifications that failed at or after --since.
--since accepts a duration relative to now (24h, 90m) or an RFC 3339 time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseSince(since, time.Now())
			if err != nil {
				return err
			}
			return s.withBackend(cmd, func(ctx context.Context, b *Backend) error {
				items, err := b.Store.FailedSince(ctx, from)
				if err != nil {
					return err
				}
				return s.print(items)
			})
		},
	}
	cmd.Flags().StringVar(&since, "since", "24h", "Earliest processing time to include")

	return cmd
}

func newShowCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid notification id %q: %w", args[0], err)
			}
			return s.withBackend(cmd, func(ctx context.Context, b *Backend) error {
				g, ok := b.Store.(getter)
				if !ok {
					return ErrGetUnsupported
				}
				n, err := g.Get(ctx, id)
				if err != nil {
					return err
				}
				return s.print([]notification.Notification{n})
			})
		},
	}
}

func newRequeueCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <id>...",
		Short: "Mark notifications as pending so the next publish delivers them again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uuid.UUID, 0, len(args))
			for _, arg := range args {
				id, err := uuid.Parse(arg)
				if err != nil {
					return fmt.Errorf("invalid notification id %q: %w", arg, err)
				}
				ids = append(ids, id)
			}
			return s.withBackend(cmd, func(ctx context.Context, b *Backend) error {
				for _, id := range ids {
					if err := b.Store.MarkPublished(ctx, id, notification.NotProcessed()); err != nil {
						return fmt.Errorf("requeue %s: %w", id, err)
					}
					fmt.Fprintf(s.out, "requeued %s\n", id)
				}
				return nil
			})
		},
	}
}

func (s *settings) print(items []notification.Notification) error {
	if s.json {
		for _, n := range items {
			data, err := notification.EncodeEnvelope(n)
			if err != nil {
				return err
			}
			fmt.Fprintln(s.out, string(data))
		}
		return nil
	}

	if len(items) == 0 {
		fmt.Fprintln(s.out, "no notifications")
		return nil
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSENDER\tCREATED\tSTATE\tPROCESSED BY\tERROR")
	for _, n := range items {
		meta := n.Meta()
		state := meta.Result.State
		if state == "" {
			state = notification.StatePending
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			meta.ID,
			notification.TypeName(n),
			meta.Sender,
			meta.CreatedAt.Format(time.RFC3339),
			state,
			meta.Result.ProcessedBy,
			meta.Result.Error,
		)
	}
	return w.Flush()
}

func parseSince(value string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return now.Add(-d), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSince, value)
}
