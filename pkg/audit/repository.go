package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for audit trail persistence.
// Events are append-only: there is no update or single-row delete.
type Repository interface {
	Insert(ctx context.Context, event Event) error
	FindSince(ctx context.Context, userID *uuid.UUID, since time.Time) ([]Event, error)
}
