package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository implements Repository with a map, for tests and
// single-process deployments
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]Attempt
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]Attempt),
	}
}

func key(identifier, action string) string {
	return identifier + "\x00" + action
}

func (r *InMemoryRepository) Get(ctx context.Context, identifier, action string) (Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.records[key(identifier, action)]
	if !ok {
		return Attempt{}, ErrNoRecord
	}
	return a, nil
}

func (r *InMemoryRepository) Increment(ctx context.Context, identifier, action string, at, windowStart time.Time, threshold int32, lockUntil time.Time) (Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(identifier, action)
	a, ok := r.records[k]
	if !ok || a.FirstAttempt.Before(windowStart) {
		a = Attempt{
			Identifier:   identifier,
			Action:       action,
			Attempts:     1,
			FirstAttempt: at,
		}
	} else {
		a.Attempts++
	}
	a.LastAttempt = at
	if a.Attempts >= threshold {
		a.LockedUntil = lockUntil
	}
	r.records[k] = a
	return a, nil
}

func (r *InMemoryRepository) ClearLock(ctx context.Context, identifier, action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(identifier, action)
	if a, ok := r.records[k]; ok {
		a.Attempts = 0
		a.LockedUntil = time.Time{}
		r.records[k] = a
	}
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, identifier, action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, key(identifier, action))
	return nil
}

func (r *InMemoryRepository) DeleteStale(ctx context.Context, lockCutoff, windowCutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for k, a := range r.records {
		expired := !a.LockedUntil.IsZero() && a.LockedUntil.Before(lockCutoff)
		stale := a.LockedUntil.IsZero() && a.LastAttempt.Before(windowCutoff)
		if expired || stale {
			delete(r.records, k)
			removed++
		}
	}
	return removed, nil
}
