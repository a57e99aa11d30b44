package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigovpro/authcore/pkg/audit"
	"github.com/aigovpro/authcore/pkg/errors"
)

const testPassword = "GoodPass#1Long"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *InMemoryUserRepository, *fakeClock) {
	t.Helper()
	repo := NewInMemoryUserRepository()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(repo, WithClock(clock.Now))
	return svc, repo, clock
}

func TestCreateUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "alice@example.com", testPassword, "Alice", "Acme", "")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, RoleUser, user.Role)
	assert.True(t, user.IsActive)
	assert.Zero(t, user.FailedLoginAttempts)
	assert.True(t, user.LockedUntil.IsZero())
	assert.NotEqual(t, []byte(testPassword), user.PasswordHash, "password must not be stored in plain text")
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "alice@example.com", testPassword, "Alice", "Acme", "")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "alice@example.com", testPassword, "Other", "Acme", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUserAlreadyExists))
	assert.Equal(t, "Email already registered", errors.GetMessage(err))
}

func TestCreateUserRejectsWeakPassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "alice@example.com", "short", "Alice", "Acme", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePasswordComplexity))

	exists, err := repo.UserExists(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, exists, "rejected registration must not create a record")
}

func TestGetUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	exists, err := svc.GetUser(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, exists, "never-registered email must report false")

	_, err = svc.CreateUser(ctx, "alice@example.com", testPassword, "Alice", "Acme", "")
	require.NoError(t, err)

	exists, err = svc.GetUser(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.GetUser(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAuthenticateSuccess(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "alice@example.com", testPassword, "Alice", "Acme", "")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, clock.now, user.LastLogin)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "alice@example.com", testPassword, "Alice", "Acme", "")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice@example.com", "WrongPass#1Long")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))

	user, err := repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int32(1), user.FailedLoginAttempts)
	assert.True(t, user.LockedUntil.IsZero(), "one failure must not lock")
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "nobody@example.com", testPassword)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials),
		"unknown account must be indistinguishable from a wrong password")
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "alice@example.com", testPassword, "Alice", "Acme", "")
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, "alice@example.com"))

	_, err = svc.Authenticate(ctx, "alice@example.com", testPassword)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))

	// Deactivated accounts do not accumulate failures
	user, err := repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Zero(t, user.FailedLoginAttempts)
}

func TestLockoutAfterThreshold(t *testing.T) {
	svc, repo, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "alice@example.com", testPassword, "Alice", "Acme", "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = svc.Authenticate(ctx, "alice@example.com", "WrongPass#1Long")
		require.Error(t, err)
	}

	user, err := repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int32(5), user.FailedLoginAttempts)
	assert.Equal(t, clock.now.Add(30*time.Minute), user.LockedUntil)

	// Correct password is rejected while the lock is live and the hash
	// comparison is skipped entirely
	_, err = svc.Authenticate(ctx, "alice@example.com", testPassword)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUserLocked))

	locked, err := svc.IsAccountLocked(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestLockExpires(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "alice@example.com", testPassword, "Alice", "Acme", "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _ = svc.Authenticate(ctx, "alice@example.com", "WrongPass#1Long")
	}

	clock.Advance(29 * time.Minute)
	_, err = svc.Authenticate(ctx, "alice@example.com", testPassword)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUserLocked), "lock must hold until it expires")

	clock.Advance(2 * time.Minute)
	user, err := svc.Authenticate(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	assert.Zero(t, user.FailedLoginAttempts)
	assert.True(t, user.LockedUntil.IsZero())

	locked, err := svc.IsAccountLocked(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestSuccessResetsCounter(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "alice@example.com", testPassword, "Alice", "Acme", "")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, _ = svc.Authenticate(ctx, "alice@example.com", "WrongPass#1Long")
	}

	_, err = svc.Authenticate(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	user, err := repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Zero(t, user.FailedLoginAttempts, "success must zero the counter")

	// The next run of failures needs the full threshold again
	for i := 0; i < 4; i++ {
		_, _ = svc.Authenticate(ctx, "alice@example.com", "WrongPass#1Long")
	}
	user, err = repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, user.LockedUntil.IsZero())
}

func TestLockoutOptions(t *testing.T) {
	repo := NewInMemoryUserRepository()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(repo,
		WithClock(clock.Now),
		WithMaxFailedAttempts(2),
		WithLockoutDuration(5*time.Minute),
	)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "alice@example.com", testPassword, "Alice", "Acme", "")
	require.NoError(t, err)

	_, _ = svc.Authenticate(ctx, "alice@example.com", "WrongPass#1Long")
	_, _ = svc.Authenticate(ctx, "alice@example.com", "WrongPass#1Long")

	user, err := repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(5*time.Minute), user.LockedUntil)
}

func TestAuthenticateAuditTrail(t *testing.T) {
	repo := NewInMemoryUserRepository()
	auditRepo := audit.NewInMemoryRepository()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(repo,
		WithClock(clock.Now),
		WithAuditRecorder(audit.NewService(auditRepo)),
	)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "alice@example.com", testPassword, "Alice", "Acme", "")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, _ = svc.Authenticate(ctx, "alice@example.com", "WrongPass#1Long")
	}

	actions := make(map[string]int)
	for _, e := range auditRepo.Events() {
		actions[e.Action]++
	}
	assert.Equal(t, 1, actions[audit.ActionUserRegistration])
	assert.Equal(t, 6, actions[audit.ActionAuthentication])
	assert.Equal(t, 1, actions[audit.ActionAccountLockout])
}

func TestDeactivateUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Deactivate(context.Background(), "nobody@example.com")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestIsAccountLockedUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	locked, err := svc.IsAccountLocked(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, locked)
}
