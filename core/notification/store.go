package notification

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the notification outbox.
type Store interface {
	// Store adds n unless a notification with the same id is already present.
	// The first stored content wins. Notifications rejected by Validate are
	// not stored.
	Store(ctx context.Context, n Notification) error

	// Pending returns every notification not yet processed, oldest first.
	Pending(ctx context.Context) ([]Notification, error)

	// MarkPublished replaces the processing result of the notification with id.
	// It returns ErrNotFound for an unknown id and ErrInvalidState when the
	// stored notification cannot carry a result.
	MarkPublished(ctx context.Context, id uuid.UUID, r ProcessingResult) error

	// FailedSince returns processed, unsuccessful notifications whose
	// ProcessedAt is at or after since.
	FailedSince(ctx context.Context, since time.Time) ([]Notification, error)
}

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Notification
	order []uuid.UUID
}

// NewMemoryStore returns an empty in-memory outbox.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[uuid.UUID]Notification),
	}
}

// Store implements Store.
func (s *MemoryStore) Store(ctx context.Context, n Notification) error {
	if err := Validate(n); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := n.Meta().ID
	if _, exists := s.items[id]; exists {
		return nil
	}
	s.items[id] = n
	s.order = append(s.order, id)
	return nil
}

// Pending implements Store.
func (s *MemoryStore) Pending(ctx context.Context) ([]Notification, error) {
	return s.filter(func(r ProcessingResult) bool { return !r.IsProcessed() }), nil
}

// FailedSince implements Store.
func (s *MemoryStore) FailedSince(ctx context.Context, since time.Time) ([]Notification, error) {
	return s.filter(func(r ProcessingResult) bool {
		return r.IsFailed() && !r.ProcessedAt.Before(since)
	}), nil
}

// MarkPublished implements Store.
func (s *MemoryStore) MarkPublished(ctx context.Context, id uuid.UUID, r ProcessingResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	updated, err := WithResult(n, r)
	if err != nil {
		return fmt.Errorf("mark notification %s: %w", id, err)
	}
	s.items[id] = updated
	return nil
}

// Get returns the notification with id.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return n, nil
}

// Len returns the number of stored notifications.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *MemoryStore) filter(keep func(ProcessingResult) bool) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Notification, 0)
	for _, id := range s.order {
		n := s.items[id]
		if keep(n.Meta().Result) {
			out = append(out, n)
		}
	}
	slices.SortStableFunc(out, func(a, b Notification) int {
		return a.Meta().CreatedAt.Compare(b.Meta().CreatedAt)
	})
	return out
}
