package reset

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTokenNotFound is returned when no token row matches
	ErrTokenNotFound = errors.New("reset token not found")
	// ErrTokenConsumed is returned when the token was already used
	ErrTokenConsumed = errors.New("reset token already used")
)

// Token is an issued password reset token. UsedAt is the zero time until
// the token is consumed.
type Token struct {
	ID        uuid.UUID
	Email     string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    time.Time
}

// TokenRepository persists reset tokens and the per-account request log
// that backs the issuance rate limit.
type TokenRepository interface {
	// CreateToken stores a newly issued token
	CreateToken(ctx context.Context, email, token string, createdAt, expiresAt time.Time) (Token, error)

	// FindToken returns the token row, or ErrTokenNotFound
	FindToken(ctx context.Context, token string) (Token, error)

	// ConsumeToken marks the token used at the given time. Exactly one
	// caller can win; later calls get ErrTokenConsumed. A missing token
	// returns ErrTokenNotFound.
	ConsumeToken(ctx context.Context, token string, at time.Time) error

	// RecordRequest logs one issuance request for the email
	RecordRequest(ctx context.Context, email string, at time.Time) error

	// CountRecentRequests returns how many issuance requests the email
	// made at or after since
	CountRecentRequests(ctx context.Context, email string, since time.Time) (int32, error)

	// DeleteExpiredTokens removes tokens that are expired or consumed
	// as of now. Returns the number removed.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)

	// DeleteOldRequests removes request log rows older than cutoff.
	// Returns the number removed.
	DeleteOldRequests(ctx context.Context, cutoff time.Time) (int64, error)
}
