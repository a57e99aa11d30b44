package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrNoRecord is returned when no attempt record exists for the key
var ErrNoRecord = errors.New("no attempt record")

// Attempt is the persisted failure counter for one identifier and action.
// LockedUntil is the zero time while the key is not locked.
type Attempt struct {
	Identifier   string
	Action       string
	Attempts     int32
	FirstAttempt time.Time
	LastAttempt  time.Time
	LockedUntil  time.Time
}

// Repository persists attempt counters. Increment must be atomic so
// concurrent failures cannot lose counts.
type Repository interface {
	// Get returns the record for the key, or ErrNoRecord
	Get(ctx context.Context, identifier, action string) (Attempt, error)

	// Increment records one failure at the given time. A record whose
	// first attempt predates windowStart restarts at one. When the
	// post-increment count reaches threshold the record is locked until
	// lockUntil. Returns the resulting record.
	Increment(ctx context.Context, identifier, action string, at, windowStart time.Time, threshold int32, lockUntil time.Time) (Attempt, error)

	// ClearLock removes the lock and resets the counter for the key
	ClearLock(ctx context.Context, identifier, action string) error

	// Delete removes the record for the key
	Delete(ctx context.Context, identifier, action string) error

	// DeleteStale removes records whose lock expired before lockCutoff
	// and unlocked records whose last attempt predates windowCutoff.
	// Returns the number of records removed.
	DeleteStale(ctx context.Context, lockCutoff, windowCutoff time.Time) (int64, error)
}
