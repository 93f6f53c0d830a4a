// Package pgoutbox stores notifications in PostgreSQL.
//
// Store joins the transaction carried by the context (see pg.WithTx), so a
// notification commits or rolls back together with the domain change that
// produced it.
//
//	if err := pgoutbox.Migrate(ctx, pool, logger); err != nil {
//		return err
//	}
//	store := pgoutbox.New(pool)
//
//	err := pg.InTx(ctx, pool, func(ctx context.Context) error {
//		if err := orders.Insert(ctx, order); err != nil {
//			return err
//		}
//		return store.Store(ctx, OrderPlaced{Base: notification.NewBase("orders"), OrderID: order.ID})
//	})
//
// Registered notification types decode to their own type. Entries of any
// other type come back as notification.Raw.
package pgoutbox

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/messaging/core/notification"
	"github.com/dmitrymomot/messaging/integration/database/pg"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationsTable records the applied outbox schema versions.
const MigrationsTable = "outbox_schema_migrations"

// Migrate creates or upgrades the notifications table.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	return pg.MigrateFS(ctx, pool, migrations, "migrations", MigrationsTable, log)
}

// Store is a notification.Store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ notification.Store = (*Store)(nil)

// New returns a store using pool, or the transaction carried by each call's context.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) db(ctx context.Context) pg.Querier {
	return pg.QuerierFromContext(ctx, s.pool)
}

const insertSQL = `
INSERT INTO notifications (id, type, sender, payload, created_at, state, processed_at, processed_by, error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO NOTHING`

// Store implements notification.Store.
func (s *Store) Store(ctx context.Context, n notification.Notification) error {
	if err := notification.Validate(n); err != nil {
		return err
	}
	typeName, payload, err := notification.Encode(n)
	if err != nil {
		return err
	}

	meta := n.Meta()
	res := meta.Result
	if res.State == "" {
		res.State = notification.StatePending
	}
	_, err = s.db(ctx).Exec(ctx, insertSQL,
		meta.ID, typeName, meta.Sender, payload, meta.CreatedAt,
		string(res.State), nullTime(res.ProcessedAt), nullString(res.ProcessedBy), nullString(res.Error),
	)
	if err != nil {
		return fmt.Errorf("store notification %s: %w", meta.ID, err)
	}
	return nil
}

const selectColumns = `SELECT type, payload, state, processed_at, processed_by, error FROM notifications`

// Pending implements notification.Store.
func (s *Store) Pending(ctx context.Context) ([]notification.Notification, error) {
	return s.query(ctx, selectColumns+` WHERE state = 'pending' ORDER BY created_at, id`)
}

// FailedSince implements notification.Store.
func (s *Store) FailedSince(ctx context.Context, since time.Time) ([]notification.Notification, error) {
	return s.query(ctx, selectColumns+` WHERE state = 'failed' AND processed_at >= $1 ORDER BY processed_at, id`,
		since.Truncate(time.Microsecond))
}

// Get returns the notification with id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (notification.Notification, error) {
	row := s.db(ctx).QueryRow(ctx, selectColumns+` WHERE id = $1`, id)
	n, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", notification.ErrNotFound, id)
	}
	return n, err
}

const markSQL = `
UPDATE notifications
SET state = $2, processed_at = $3, processed_by = $4, error = $5
WHERE id = $1`

// MarkPublished implements notification.Store.
func (s *Store) MarkPublished(ctx context.Context, id uuid.UUID, r notification.ProcessingResult) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := notification.WithResult(current, r); err != nil {
		return fmt.Errorf("mark notification %s: %w", id, err)
	}

	state := r.State
	if state == "" {
		state = notification.StatePending
	}
	tag, err := s.db(ctx).Exec(ctx, markSQL, id, string(state), nullTime(r.ProcessedAt), nullString(r.ProcessedBy), nullString(r.Error))
	if err != nil {
		return fmt.Errorf("mark notification %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", notification.ErrNotFound, id)
	}
	return nil
}

func (s *Store) query(ctx context.Context, sql string, args ...any) ([]notification.Notification, error) {
	rows, err := s.db(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := make([]notification.Notification, 0)
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	return out, nil
}

// scan decodes one row. The result columns override whatever result the
// payload was stored with.
func scan(row pgx.Row) (notification.Notification, error) {
	var (
		typeName    string
		payload     []byte
		state       string
		processedAt *time.Time
		processedBy *string
		errMsg      *string
	)
	if err := row.Scan(&typeName, &payload, &state, &processedAt, &processedBy, &errMsg); err != nil {
		return nil, err
	}

	n, err := notification.DecodeStored(typeName, payload)
	if err != nil {
		return nil, err
	}

	res := notification.ProcessingResult{State: notification.State(state)}
	if processedAt != nil {
		res.ProcessedAt = processedAt.UTC()
	}
	if processedBy != nil {
		res.ProcessedBy = *processedBy
	}
	if errMsg != nil {
		res.Error = *errMsg
	}
	if withResult, err := notification.WithResult(n, res); err == nil {
		n = withResult
	}
	return n, nil
}

// nullTime truncates to microseconds, the precision of timestamptz.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.Truncate(time.Microsecond)
	return &t
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
