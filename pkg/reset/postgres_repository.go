package reset

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTokenRepository implements TokenRepository backed by PostgreSQL
type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

func (r *PostgresTokenRepository) CreateToken(ctx context.Context, email, token string, createdAt, expiresAt time.Time) (Token, error) {
	query := `
		INSERT INTO password_resets (email, token, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, token, created_at, expires_at, used_at`

	return r.scanToken(r.pool.QueryRow(ctx, query, email, token, createdAt, expiresAt))
}

func (r *PostgresTokenRepository) FindToken(ctx context.Context, token string) (Token, error) {
	query := `
		SELECT id, email, token, created_at, expires_at, used_at
		FROM password_resets
		WHERE token = $1`

	t, err := r.scanToken(r.pool.QueryRow(ctx, query, token))
	if err == pgx.ErrNoRows {
		return Token{}, ErrTokenNotFound
	}
	return t, err
}

func (r *PostgresTokenRepository) ConsumeToken(ctx context.Context, token string, at time.Time) error {
	// The used_at guard makes consumption first-wins under concurrency
	query := `
		UPDATE password_resets
		SET used_at = $2
		WHERE token = $1 AND used_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, token, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindToken(ctx, token); err != nil {
			return err
		}
		return ErrTokenConsumed
	}
	return nil
}

func (r *PostgresTokenRepository) RecordRequest(ctx context.Context, email string, at time.Time) error {
	query := `INSERT INTO password_reset_requests (email, requested_at) VALUES ($1, $2)`

	if _, err := r.pool.Exec(ctx, query, email, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresTokenRepository) CountRecentRequests(ctx context.Context, email string, since time.Time) (int32, error) {
	query := `
		SELECT COUNT(*)
		FROM password_reset_requests
		WHERE email = $1 AND requested_at >= $2`

	var count int32
	if err := r.pool.QueryRow(ctx, query, email, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresTokenRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM password_resets WHERE expires_at < $1 OR used_at IS NOT NULL`

	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresTokenRepository) DeleteOldRequests(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM password_reset_requests WHERE requested_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresTokenRepository) scanToken(row pgx.Row) (Token, error) {
	var t Token
	var usedAt *time.Time
	err := row.Scan(&t.ID, &t.Email, &t.Token, &t.CreatedAt, &t.ExpiresAt, &usedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Token{}, err
		}
		return Token{}, fmt.Errorf("db error: %w", err)
	}
	if usedAt != nil {
		t.UsedAt = *usedAt
	}
	return t, nil
}
