package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryUserRepository implements UserRepository using in-memory storage
type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]User // email -> record
}

// NewInMemoryUserRepository creates a new in-memory user repository
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[string]User),
	}
}

// CreateUser inserts a new credential record
func (r *InMemoryUserRepository) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[arg.Email]; ok {
		return User{}, ErrDuplicateEmail
	}

	now := time.Now()
	user := User{
		ID:           uuid.New(),
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		FullName:     arg.FullName,
		Organization: arg.Organization,
		Role:         arg.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[arg.Email] = user
	return user, nil
}

// FindUserByEmail returns the record for the email
func (r *InMemoryUserRepository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

// UserExists reports whether a credential record exists for the email
func (r *InMemoryUserRepository) UserExists(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[email]
	return ok, nil
}

// RecordLoginSuccess zeroes the counter, clears the lock and stamps last_login
func (r *InMemoryUserRepository) RecordLoginSuccess(ctx context.Context, email string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[email]
	if !ok {
		return ErrUserNotFound
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = time.Time{}
	user.LastLogin = at
	user.UpdatedAt = at
	r.users[email] = user
	return nil
}

// RecordLoginFailure increments the counter and locks at the threshold
func (r *InMemoryUserRepository) RecordLoginFailure(ctx context.Context, email string, threshold int32, lockUntil time.Time) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[email]
	if !ok {
		return 0, ErrUserNotFound
	}

	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= threshold {
		user.LockedUntil = lockUntil
	}
	user.UpdatedAt = time.Now()
	r.users[email] = user
	return user.FailedLoginAttempts, nil
}

// UpdatePasswordAndClearLock overwrites the hash and clears lock state
func (r *InMemoryUserRepository) UpdatePasswordAndClearLock(ctx context.Context, email string, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[email]
	if !ok {
		return ErrUserNotFound
	}

	user.PasswordHash = hash
	user.FailedLoginAttempts = 0
	user.LockedUntil = time.Time{}
	user.UpdatedAt = time.Now()
	r.users[email] = user
	return nil
}

// Deactivate soft-deactivates the account
func (r *InMemoryUserRepository) Deactivate(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[email]
	if !ok {
		return ErrUserNotFound
	}

	user.IsActive = false
	user.UpdatedAt = time.Now()
	r.users[email] = user
	return nil
}

// SeedUser adds a record directly (for testing/initialization)
func (r *InMemoryUserRepository) SeedUser(user User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.Email] = user
}
