package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL-based audit repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert appends an event to the audit_logs table
func (r *PostgresRepository) Insert(ctx context.Context, event Event) error {
	var details []byte
	if event.Details != nil {
		var err error
		details, err = json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
	}

	query := `INSERT INTO audit_logs (user_id, action, resource_type, resource_id, timestamp, ip_address, user_agent, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		event.UserID, event.Action, event.ResourceType, event.ResourceID,
		event.Timestamp, nullIfEmpty(event.IPAddress), nullIfEmpty(event.UserAgent), details)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindSince returns events newer than the given time, newest first
func (r *PostgresRepository) FindSince(ctx context.Context, userID *uuid.UUID, since time.Time) ([]Event, error) {
	query := `SELECT id, user_id, action, resource_type, resource_id, timestamp, ip_address, user_agent, details
		 FROM audit_logs
		 WHERE timestamp > $1 AND ($2::uuid IS NULL OR user_id = $2)
		 ORDER BY timestamp DESC`

	rows, err := r.pool.Query(ctx, query, since, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ip, ua *string
		var details []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID,
			&e.Timestamp, &ip, &ua, &details); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if ip != nil {
			e.IPAddress = *ip
		}
		if ua != nil {
			e.UserAgent = *ua
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
