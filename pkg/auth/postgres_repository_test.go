package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aigovpro/authcore/pkg/auth"
	"github.com/aigovpro/authcore/pkg/db"
)

func setupTestDatabase(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("auth_db"),
		postgres.WithUsername("auth"),
		postgres.WithPassword("pwd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err)

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	poolConfig, err := pgxpool.ParseConfig(connString)
	require.NoError(t, err)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

func TestPostgresUserRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	pool, cleanup := setupTestDatabase(t)
	defer cleanup()

	repo := auth.NewPostgresUserRepository(pool)

	user, err := repo.CreateUser(ctx, auth.CreateUserParams{
		Email:        "alice@example.com",
		PasswordHash: []byte("$2a$10$abcdefghijklmnopqrstuv"),
		FullName:     "Alice",
		Organization: "Acme",
		Role:         auth.RoleUser,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", user.ID.String())
	assert.True(t, user.IsActive)
	assert.Zero(t, user.FailedLoginAttempts)

	// Duplicate email maps the unique violation
	_, err = repo.CreateUser(ctx, auth.CreateUserParams{
		Email:        "alice@example.com",
		PasswordHash: []byte("$2a$10$abcdefghijklmnopqrstuv"),
		Role:         auth.RoleUser,
	})
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)

	exists, err := repo.UserExists(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.UserExists(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	// Failure counting locks exactly at the threshold
	lockUntil := time.Now().Add(30 * time.Minute).UTC()
	for i := int32(1); i <= 2; i++ {
		count, err := repo.RecordLoginFailure(ctx, "alice@example.com", 3, lockUntil)
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}
	found, err := repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, found.LockedUntil.IsZero())

	count, err := repo.RecordLoginFailure(ctx, "alice@example.com", 3, lockUntil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), count)

	found, err = repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, lockUntil, found.LockedUntil, time.Second)

	// Success clears the counter and the lock
	loginAt := time.Now().UTC()
	require.NoError(t, repo.RecordLoginSuccess(ctx, "alice@example.com", loginAt))
	found, err = repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Zero(t, found.FailedLoginAttempts)
	assert.True(t, found.LockedUntil.IsZero())
	assert.WithinDuration(t, loginAt, found.LastLogin, time.Second)

	// Password update clears lock state as well
	_, err = repo.RecordLoginFailure(ctx, "alice@example.com", 1, lockUntil)
	require.NoError(t, err)
	require.NoError(t, repo.UpdatePasswordAndClearLock(ctx, "alice@example.com", []byte("$2a$10$vutsrqponmlkjihgfedcba")))
	found, err = repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, []byte("$2a$10$vutsrqponmlkjihgfedcba"), found.PasswordHash)
	assert.Zero(t, found.FailedLoginAttempts)
	assert.True(t, found.LockedUntil.IsZero())

	require.NoError(t, repo.Deactivate(ctx, "alice@example.com"))
	found, err = repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	assert.ErrorIs(t, repo.Deactivate(ctx, "nobody@example.com"), auth.ErrUserNotFound)
}
