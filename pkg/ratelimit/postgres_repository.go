package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository backed by PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, identifier, action string) (Attempt, error) {
	query := `
		SELECT identifier, action, attempts, first_attempt, last_attempt, locked_until
		FROM rate_limits
		WHERE identifier = $1 AND action = $2`

	var a Attempt
	var lockedUntil *time.Time
	err := r.pool.QueryRow(ctx, query, identifier, action).Scan(
		&a.Identifier, &a.Action, &a.Attempts, &a.FirstAttempt, &a.LastAttempt, &lockedUntil,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Attempt{}, ErrNoRecord
		}
		return Attempt{}, fmt.Errorf("db error: %w", err)
	}
	if lockedUntil != nil {
		a.LockedUntil = *lockedUntil
	}
	return a, nil
}

func (r *PostgresRepository) Increment(ctx context.Context, identifier, action string, at, windowStart time.Time, threshold int32, lockUntil time.Time) (Attempt, error) {
	// Single statement so concurrent failures never lose counts. A record
	// whose window has lapsed restarts at one instead of incrementing.
	query := `
		INSERT INTO rate_limits (identifier, action, attempts, first_attempt, last_attempt)
		VALUES ($1, $2, 1, $3, $3)
		ON CONFLICT (identifier, action) DO UPDATE SET
			attempts = CASE
				WHEN rate_limits.first_attempt < $4 THEN 1
				ELSE rate_limits.attempts + 1
			END,
			first_attempt = CASE
				WHEN rate_limits.first_attempt < $4 THEN $3
				ELSE rate_limits.first_attempt
			END,
			last_attempt = $3,
			locked_until = CASE
				WHEN (CASE
					WHEN rate_limits.first_attempt < $4 THEN 1
					ELSE rate_limits.attempts + 1
				END) >= $5 THEN $6
				ELSE rate_limits.locked_until
			END
		RETURNING identifier, action, attempts, first_attempt, last_attempt, locked_until`

	var a Attempt
	var lockedUntil *time.Time
	err := r.pool.QueryRow(ctx, query, identifier, action, at, windowStart, threshold, lockUntil).Scan(
		&a.Identifier, &a.Action, &a.Attempts, &a.FirstAttempt, &a.LastAttempt, &lockedUntil,
	)
	if err != nil {
		return Attempt{}, fmt.Errorf("db error: %w", err)
	}
	if lockedUntil != nil {
		a.LockedUntil = *lockedUntil
	}
	return a, nil
}

func (r *PostgresRepository) ClearLock(ctx context.Context, identifier, action string) error {
	query := `
		UPDATE rate_limits
		SET attempts = 0, locked_until = NULL
		WHERE identifier = $1 AND action = $2`

	if _, err := r.pool.Exec(ctx, query, identifier, action); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, identifier, action string) error {
	query := `DELETE FROM rate_limits WHERE identifier = $1 AND action = $2`

	if _, err := r.pool.Exec(ctx, query, identifier, action); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteStale(ctx context.Context, lockCutoff, windowCutoff time.Time) (int64, error) {
	query := `
		DELETE FROM rate_limits
		WHERE (locked_until IS NOT NULL AND locked_until < $1)
		   OR (locked_until IS NULL AND last_attempt < $2)`

	tag, err := r.pool.Exec(ctx, query, lockCutoff, windowCutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}
