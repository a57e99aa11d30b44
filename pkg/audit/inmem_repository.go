package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	mu     sync.RWMutex
	events []Event
	nextID int64
}

// NewInMemoryRepository creates a new in-memory audit repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1}
}

// Insert appends an event
func (r *InMemoryRepository) Insert(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.ID = r.nextID
	r.nextID++
	r.events = append(r.events, event)
	return nil
}

// FindSince returns events newer than the given time, newest first
func (r *InMemoryRepository) FindSince(ctx context.Context, userID *uuid.UUID, since time.Time) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Event
	for i := len(r.events) - 1; i >= 0; i-- {
		e := r.events[i]
		if !e.Timestamp.After(since) {
			continue
		}
		if userID != nil && (e.UserID == nil || *e.UserID != *userID) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Events returns a snapshot of everything recorded (for tests)
func (r *InMemoryRepository) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
