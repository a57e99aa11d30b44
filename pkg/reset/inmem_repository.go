package reset

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type requestRecord struct {
	email       string
	requestedAt time.Time
}

// InMemoryTokenRepository implements TokenRepository with maps, for tests
type InMemoryTokenRepository struct {
	mu       sync.RWMutex
	tokens   map[string]Token
	requests []requestRecord
}

func NewInMemoryTokenRepository() *InMemoryTokenRepository {
	return &InMemoryTokenRepository{
		tokens: make(map[string]Token),
	}
}

func (r *InMemoryTokenRepository) CreateToken(ctx context.Context, email, token string, createdAt, expiresAt time.Time) (Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := Token{
		ID:        uuid.New(),
		Email:     email,
		Token:     token,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
	r.tokens[token] = t
	return t, nil
}

func (r *InMemoryTokenRepository) FindToken(ctx context.Context, token string) (Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[token]
	if !ok {
		return Token{}, ErrTokenNotFound
	}
	return t, nil
}

func (r *InMemoryTokenRepository) ConsumeToken(ctx context.Context, token string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok {
		return ErrTokenNotFound
	}
	if !t.UsedAt.IsZero() {
		return ErrTokenConsumed
	}
	t.UsedAt = at
	r.tokens[token] = t
	return nil
}

func (r *InMemoryTokenRepository) RecordRequest(ctx context.Context, email string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, requestRecord{email: email, requestedAt: at})
	return nil
}

func (r *InMemoryTokenRepository) CountRecentRequests(ctx context.Context, email string, since time.Time) (int32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int32
	for _, req := range r.requests {
		if req.email == email && !req.requestedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *InMemoryTokenRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for k, t := range r.tokens {
		if t.ExpiresAt.Before(now) || !t.UsedAt.IsZero() {
			delete(r.tokens, k)
			removed++
		}
	}
	return removed, nil
}

func (r *InMemoryTokenRepository) DeleteOldRequests(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.requests[:0]
	var removed int64
	for _, req := range r.requests {
		if req.requestedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, req)
	}
	r.requests = kept
	return removed, nil
}
