package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by UserRepository implementations
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrUserNotActive  = errors.New("user is not active")
)

// Role values assignable to a user
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleDemo  = "demo"
)

// User represents a credential record in the domain model
type User struct {
	ID                  uuid.UUID
	Email               string
	PasswordHash        []byte
	FullName            string
	Organization        string
	Role                string
	IsActive            bool
	FailedLoginAttempts int32
	LockedUntil         time.Time // zero value when not locked
	LastLogin           time.Time // zero value when never logged in
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CreateUserParams represents parameters for creating a user record
type CreateUserParams struct {
	Email        string
	PasswordHash []byte
	FullName     string
	Organization string
	Role         string
}

// UserRepository defines the interface for credential store operations.
//
// Every mutation of the failed-attempt counter or lock state must be a
// single atomic operation in the implementation: concurrent callers may
// interleave and lost updates would undercount failures.
type UserRepository interface {
	// CreateUser inserts a new credential record. Returns ErrDuplicateEmail
	// if the email is already present (case-sensitive exact match).
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)

	// FindUserByEmail returns the record for the email or ErrUserNotFound.
	FindUserByEmail(ctx context.Context, email string) (User, error)

	// UserExists reports whether a credential record exists for the email.
	UserExists(ctx context.Context, email string) (bool, error)

	// RecordLoginSuccess atomically zeroes the failed-attempt counter,
	// clears the lock and stamps the last-login time.
	RecordLoginSuccess(ctx context.Context, email string, at time.Time) error

	// RecordLoginFailure atomically increments the failed-attempt counter
	// and sets locked_until to lockUntil when the post-increment count
	// reaches threshold. Returns the post-increment count.
	RecordLoginFailure(ctx context.Context, email string, threshold int32, lockUntil time.Time) (int32, error)

	// UpdatePasswordAndClearLock overwrites the password hash and clears
	// failed-attempt and lock state in one atomic operation.
	UpdatePasswordAndClearLock(ctx context.Context, email string, hash []byte) error

	// Deactivate soft-deactivates the account. The core never hard-deletes.
	Deactivate(ctx context.Context, email string) error
}
