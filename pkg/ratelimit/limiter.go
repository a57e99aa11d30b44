package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultMaxAttempts is the failure count that triggers a lock
	DefaultMaxAttempts = 5
	// DefaultWindow bounds how long failures accumulate before the
	// counter restarts
	DefaultWindow = 15 * time.Minute
	// DefaultLockDuration is how long a key stays locked
	DefaultLockDuration = 30 * time.Minute
)

// Limiter enforces the attempt limits against a Repository
type Limiter struct {
	repo         Repository
	maxAttempts  int32
	window       time.Duration
	lockDuration time.Duration
	now          func() time.Time
}

// LimiterOption configures a Limiter
type LimiterOption func(*Limiter)

// WithMaxAttempts sets the failure count that triggers a lock
func WithMaxAttempts(max int32) LimiterOption {
	return func(l *Limiter) {
		l.maxAttempts = max
	}
}

// WithWindow sets the accumulation window
func WithWindow(d time.Duration) LimiterOption {
	return func(l *Limiter) {
		l.window = d
	}
}

// WithLockDuration sets how long a crossed threshold locks the key
func WithLockDuration(d time.Duration) LimiterOption {
	return func(l *Limiter) {
		l.lockDuration = d
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) {
		l.now = now
	}
}

// NewLimiter creates a limiter with the default policy
func NewLimiter(repo Repository, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		repo:         repo,
		maxAttempts:  DefaultMaxAttempts,
		window:       DefaultWindow,
		lockDuration: DefaultLockDuration,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckRateLimit reports whether the key may proceed. A blocked key gets a
// user-facing message with the minutes remaining. A lock that has expired
// is cleared here so the next check starts fresh.
func (l *Limiter) CheckRateLimit(ctx context.Context, identifier, action string) (bool, string, error) {
	a, err := l.repo.Get(ctx, identifier, action)
	if err != nil {
		if err == ErrNoRecord {
			return true, "", nil
		}
		return false, "", err
	}

	now := l.now()
	if !a.LockedUntil.IsZero() {
		if now.Before(a.LockedUntil) {
			minutes := int(a.LockedUntil.Sub(now).Minutes()) + 1
			return false, fmt.Sprintf("Account temporarily locked. Try again in %d minutes", minutes), nil
		}
		// Lock lapsed; clear it so the counter starts over
		if err := l.repo.ClearLock(ctx, identifier, action); err != nil {
			return false, "", err
		}
		return true, "", nil
	}

	if a.FirstAttempt.Before(now.Add(-l.window)) {
		return true, "", nil
	}

	if a.Attempts >= l.maxAttempts {
		return false, "Too many attempts. Please try again later", nil
	}

	return true, "", nil
}

// RecordFailedAttempt counts one failure for the key. Returns true when
// this failure crossed the threshold and locked the key.
func (l *Limiter) RecordFailedAttempt(ctx context.Context, identifier, action string) (bool, error) {
	now := l.now()
	a, err := l.repo.Increment(ctx, identifier, action, now, now.Add(-l.window), l.maxAttempts, now.Add(l.lockDuration))
	if err != nil {
		return false, err
	}

	locked := !a.LockedUntil.IsZero() && now.Before(a.LockedUntil)
	if locked && a.Attempts == l.maxAttempts {
		slog.Warn("Rate limit lock engaged", "identifier", identifier, "action", action, "locked_until", a.LockedUntil)
		return true, nil
	}
	return false, nil
}

// ResetAttempts clears all recorded failures for the key, typically after
// a success
func (l *Limiter) ResetAttempts(ctx context.Context, identifier, action string) error {
	return l.repo.Delete(ctx, identifier, action)
}

// CleanupExpiredLocks removes records whose lock has expired and unlocked
// records outside the accumulation window. Safe to run repeatedly.
func (l *Limiter) CleanupExpiredLocks(ctx context.Context) (int64, error) {
	now := l.now()
	return l.repo.DeleteStale(ctx, now, now.Add(-l.window))
}
