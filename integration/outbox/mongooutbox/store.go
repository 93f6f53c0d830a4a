// Package mongooutbox stores notifications in a MongoDB collection.
//
// Documents keep the JSON payload produced by notification.Encode next to
// the processing result fields. Times are stored twice: as RFC 3339 strings
// with full precision and as microsecond integers used for ordering and
// range queries.
//
// Registered notification types decode to their own type. Entries of any
// other type come back as notification.Raw.
package mongooutbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/messaging/core/notification"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "notifications"

type document struct {
	ID          string `bson:"_id"`
	Type        string `bson:"type"`
	Sender      string `bson:"sender"`
	Payload     string `bson:"payload"`
	CreatedUS   int64  `bson:"created_us"`
	State       string `bson:"state"`
	ProcessedAt string `bson:"processed_at,omitempty"`
	ProcessedUS int64  `bson:"processed_us"`
	ProcessedBy string `bson:"processed_by,omitempty"`
	Error       string `bson:"error,omitempty"`
}

// Store is a notification.Store backed by MongoDB.
type Store struct {
	coll *mongo.Collection
}

var _ notification.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	collection string
}

// WithCollection sets the collection name.
func WithCollection(name string) Option {
	return func(o *storeOptions) {
		if name != "" {
			o.collection = name
		}
	}
}

// New returns a store writing to a collection of db.
func New(db *mongo.Database, opts ...Option) *Store {
	o := storeOptions{collection: DefaultCollection}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{coll: db.Collection(o.collection)}
}

// EnsureIndexes creates the indexes used by Pending and FailedSince.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_us", Value: 1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "processed_us", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create notification indexes: %w", err)
	}
	return nil
}

// Store implements notification.Store. A duplicate id is ignored.
func (s *Store) Store(ctx context.Context, n notification.Notification) error {
	if err := notification.Validate(n); err != nil {
		return err
	}
	typeName, payload, err := notification.Encode(n)
	if err != nil {
		return err
	}

	meta := n.Meta()
	doc := document{
		ID:        meta.ID.String(),
		Type:      typeName,
		Sender:    meta.Sender,
		Payload:   string(payload),
		CreatedUS: meta.CreatedAt.UnixMicro(),
	}
	applyResult(&doc, meta.Result)

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("store notification %s: %w", doc.ID, err)
	}
	return nil
}

// Pending implements notification.Store.
func (s *Store) Pending(ctx context.Context) ([]notification.Notification, error) {
	return s.find(ctx, bson.D{{Key: "state", Value: string(notification.StatePending)}}, nil)
}

// FailedSince implements notification.Store.
func (s *Store) FailedSince(ctx context.Context, since time.Time) ([]notification.Notification, error) {
	filter := bson.D{
		{Key: "state", Value: string(notification.StateFailed)},
		{Key: "processed_us", Value: bson.D{{Key: "$gte", Value: since.UnixMicro()}}},
	}
	return s.find(ctx, filter, func(r notification.ProcessingResult) bool {
		return !r.ProcessedAt.Before(since)
	})
}

// Get returns the notification with id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (notification.Notification, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", notification.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}
	return decode(doc)
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

	var doc document
	applyResult(&doc, r)
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "state", Value: doc.State},
		{Key: "processed_at", Value: doc.ProcessedAt},
		{Key: "processed_us", Value: doc.ProcessedUS},
		{Key: "processed_by", Value: doc.ProcessedBy},
		{Key: "error", Value: doc.Error},
	}}}

	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id.String()}}, update)
	if err != nil {
		return fmt.Errorf("mark notification %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", notification.ErrNotFound, id)
	}
	return nil
}

func (s *Store) find(ctx context.Context, filter bson.D, keep func(notification.ProcessingResult) bool) ([]notification.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_us", Value: 1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}

	out := make([]notification.Notification, 0, len(docs))
	for _, doc := range docs {
		n, err := decode(doc)
		if err != nil {
			return nil, err
		}
		if keep == nil || keep(n.Meta().Result) {
			out = append(out, n)
		}
	}
	return out, nil
}

func applyResult(doc *document, r notification.ProcessingResult) {
	doc.State = string(r.State)
	if doc.State == "" {
		doc.State = string(notification.StatePending)
	}
	doc.ProcessedBy = r.ProcessedBy
	doc.Error = r.Error
	doc.ProcessedAt = ""
	doc.ProcessedUS = 0
	if !r.ProcessedAt.IsZero() {
		doc.ProcessedAt = r.ProcessedAt.UTC().Format(time.RFC3339Nano)
		doc.ProcessedUS = r.ProcessedAt.UnixMicro()
	}
}

// decode rebuilds a notification. The document's result fields override the
// result carried in the payload.
func decode(doc document) (notification.Notification, error) {
	n, err := notification.DecodeStored(doc.Type, []byte(doc.Payload))
	if err != nil {
		return nil, err
	}

	res := notification.ProcessingResult{
		State:       notification.State(doc.State),
		ProcessedBy: doc.ProcessedBy,
		Error:       doc.Error,
	}
	if doc.ProcessedAt != "" {
		at, err := time.Parse(time.RFC3339Nano, doc.ProcessedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: processed_at %q", notification.ErrInvalidPayload, doc.ProcessedAt)
		}
		res.ProcessedAt = at
	}
	if withResult, err := notification.WithResult(n, res); err == nil {
		n = withResult
	}
	return n, nil
}
