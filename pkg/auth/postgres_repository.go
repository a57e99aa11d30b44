package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgreSQL-based user repository
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, email, password_hash, full_name, organization, role, is_active,
	failed_login_attempts, locked_until, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	var lockedUntil, lastLogin *time.Time
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Organization,
		&u.Role, &u.IsActive, &u.FailedLoginAttempts, &lockedUntil, &lastLogin,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	if lockedUntil != nil {
		u.LockedUntil = *lockedUntil
	}
	if lastLogin != nil {
		u.LastLogin = *lastLogin
	}
	return u, nil
}

// CreateUser inserts a new credential record
func (r *PostgresUserRepository) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	query := `INSERT INTO users (email, password_hash, full_name, organization, role, is_active, failed_login_attempts)
		 VALUES ($1, $2, $3, $4, $5, TRUE, 0)
		 RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query, arg.Email, arg.PasswordHash, arg.FullName, arg.Organization, arg.Role)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 is unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// FindUserByEmail returns the record for the email
func (r *PostgresUserRepository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// UserExists reports whether a credential record exists for the email
func (r *PostgresUserRepository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// RecordLoginSuccess zeroes the counter, clears the lock and stamps last_login
func (r *PostgresUserRepository) RecordLoginSuccess(ctx context.Context, email string, at time.Time) error {
	query := `UPDATE users
		 SET failed_login_attempts = 0, locked_until = NULL, last_login = $2, updated_at = $2
		 WHERE email = $1`

	tag, err := r.pool.Exec(ctx, query, email, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RecordLoginFailure increments the counter and locks at the threshold.
// The increment and the conditional lock happen in one statement so that
// interleaved failures cannot lose updates.
func (r *PostgresUserRepository) RecordLoginFailure(ctx context.Context, email string, threshold int32, lockUntil time.Time) (int32, error) {
	query := `UPDATE users
		 SET failed_login_attempts = failed_login_attempts + 1,
		     locked_until = CASE WHEN failed_login_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
		     updated_at = NOW()
		 WHERE email = $1
		 RETURNING failed_login_attempts`

	var count int32
	err := r.pool.QueryRow(ctx, query, email, threshold, lockUntil).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

// UpdatePasswordAndClearLock overwrites the hash and clears lock state
func (r *PostgresUserRepository) UpdatePasswordAndClearLock(ctx context.Context, email string, hash []byte) error {
	query := `UPDATE users
		 SET password_hash = $2, failed_login_attempts = 0, locked_until = NULL, updated_at = NOW()
		 WHERE email = $1`

	tag, err := r.pool.Exec(ctx, query, email, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Deactivate soft-deactivates the account
func (r *PostgresUserRepository) Deactivate(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
