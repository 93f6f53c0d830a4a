// Package redisoutbox stores notifications in Redis.
//
// Each notification is a hash under "<prefix>:n:<id>". Two sorted sets index
// it: "<prefix>:pending" scored by creation time and "<prefix>:failed" scored
// by processing time. Inserts and state changes run as Lua scripts so the hash
// and the indexes never disagree.
//
// Registered notification types decode to their own type. Entries of any
// other type come back as notification.Raw.
package redisoutbox

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/messaging/core/notification"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "outbox"

// Store is a notification.Store backed by Redis.
type Store struct {
	client redis.UniversalClient
	prefix string
}

var _ notification.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New returns a store using client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KEYS: item, pending, failed
// ARGV: type, payload, state, processed_at, processed_by, error, created_score, id, processed_score
var storeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1],
	'type', ARGV[1], 'payload', ARGV[2], 'state', ARGV[3],
	'processed_at', ARGV[4], 'processed_by', ARGV[5], 'error', ARGV[6],
	'created_score', ARGV[7])
if ARGV[3] == 'pending' then
	redis.call('ZADD', KEYS[2], ARGV[7], ARGV[8])
elseif ARGV[3] == 'failed' then
	redis.call('ZADD', KEYS[3], ARGV[9], ARGV[8])
end
return 1
`)

// KEYS: item, pending, failed
// ARGV: state, processed_at, processed_by, error, id, processed_score
var markScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1],
	'state', ARGV[1], 'processed_at', ARGV[2], 'processed_by', ARGV[3], 'error', ARGV[4])
redis.call('ZREM', KEYS[2], ARGV[5])
redis.call('ZREM', KEYS[3], ARGV[5])
if ARGV[1] == 'failed' then
	redis.call('ZADD', KEYS[3], ARGV[6], ARGV[5])
elseif ARGV[1] == 'pending' then
	redis.call('ZADD', KEYS[2], redis.call('HGET', KEYS[1], 'created_score'), ARGV[5])
end
return 1
`)

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
	state := stateOf(res)
	id := meta.ID.String()

	err = storeScript.Run(ctx, s.client,
		[]string{s.itemKey(id), s.pendingKey(), s.failedKey()},
		typeName, string(payload), string(state),
		formatTime(res.ProcessedAt), res.ProcessedBy, res.Error,
		score(meta.CreatedAt), id, score(res.ProcessedAt),
	).Err()
	if err != nil {
		return fmt.Errorf("store notification %s: %w", id, err)
	}
	return nil
}

// Pending implements notification.Store.
func (s *Store) Pending(ctx context.Context) ([]notification.Notification, error) {
	ids, err := s.client.ZRange(ctx, s.pendingKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return s.load(ctx, ids, func(notification.ProcessingResult) bool { return true })
}

// FailedSince implements notification.Store.
func (s *Store) FailedSince(ctx context.Context, since time.Time) ([]notification.Notification, error) {
	ids, err := s.client.ZRangeByScore(ctx, s.failedKey(), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMicro(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list failed notifications: %w", err)
	}
	// Scores have microsecond precision; compare the stored time exactly.
	return s.load(ctx, ids, func(r notification.ProcessingResult) bool {
		return !r.ProcessedAt.Before(since)
	})
}

// Get returns the notification with id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (notification.Notification, error) {
	fields, err := s.client.HGetAll(ctx, s.itemKey(id.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", notification.ErrNotFound, id)
	}
	return decode(fields)
}

// MarkPublished implements notification.Store.
func (s *Store) MarkPublished(ctx context.Context, id uuid.UUID, r notification.ProcessingResult) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := notification.WithResult(current, r); err != nil {
		return fmt.Errorf("mark notification %s: %w", id, err)
	}

	key := id.String()
	updated, err := markScript.Run(ctx, s.client,
		[]string{s.itemKey(key), s.pendingKey(), s.failedKey()},
		string(stateOf(r)), formatTime(r.ProcessedAt), r.ProcessedBy, r.Error,
		key, score(r.ProcessedAt),
	).Int()
	if err != nil {
		return fmt.Errorf("mark notification %s: %w", id, err)
	}
	if updated == 0 {
		return fmt.Errorf("%w: %s", notification.ErrNotFound, id)
	}
	return nil
}

func (s *Store) load(ctx context.Context, ids []string, keep func(notification.ProcessingResult) bool) ([]notification.Notification, error) {
	out := make([]notification.Notification, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.itemKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load notifications: %w", err)
	}

	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		n, err := decode(fields)
		if err != nil {
			return nil, err
		}
		if keep(n.Meta().Result) {
			out = append(out, n)
		}
	}
	return out, nil
}

// decode rebuilds a notification from its hash. The result fields override
// whatever result the payload was stored with.
func decode(fields map[string]string) (notification.Notification, error) {
	n, err := notification.DecodeStored(fields["type"], []byte(fields["payload"]))
	if err != nil {
		return nil, err
	}

	res := notification.ProcessingResult{
		State:       notification.State(fields["state"]),
		ProcessedBy: fields["processed_by"],
		Error:       fields["error"],
	}
	if raw := fields["processed_at"]; raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: processed_at %q", notification.ErrInvalidPayload, raw)
		}
		res.ProcessedAt = at
	}
	if withResult, err := notification.WithResult(n, res); err == nil {
		n = withResult
	}
	return n, nil
}

func (s *Store) itemKey(id string) string { return s.prefix + ":n:" + id }
func (s *Store) pendingKey() string       { return s.prefix + ":pending" }
func (s *Store) failedKey() string        { return s.prefix + ":failed" }

func stateOf(r notification.ProcessingResult) notification.State {
	if r.State == "" {
		return notification.StatePending
	}
	return r.State
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func score(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}
