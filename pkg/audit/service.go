package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Action tags for audit events
const (
	ActionAuthentication   = "authentication"
	ActionUserRegistration = "user_registration"
	ActionAccountLockout   = "account_lockout"
	ActionResetRequested   = "password_reset_requested"
	ActionResetRateLimited = "password_reset_rate_limited"
	ActionResetCompleted   = "password_reset_completed"
)

// Event represents an audit event
type Event struct {
	ID           int64
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Timestamp    time.Time
	IPAddress    string
	UserAgent    string
	Details      map[string]interface{}
}

// Recorder is the write-side contract consumed by the security packages
type Recorder interface {
	Log(ctx context.Context, event Event)
}

// Service manages the audit trail
type Service struct {
	repo Repository
}

// NewService creates a new audit service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Log appends an event to the trail. Persistence failures are logged and
// swallowed: audit logging is observability, not a transactional participant.
func (s *Service) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		slog.Error("Failed to save audit log", "action", event.Action, "err", err)
	}
}

// LogAuthentication records an authentication attempt outcome
func (s *Service) LogAuthentication(ctx context.Context, email string, success bool) {
	if success {
		slog.Info("Authentication SUCCESS", "email", email)
	} else {
		slog.Warn("Authentication FAILED", "email", email)
	}

	s.Log(ctx, Event{
		Action:       ActionAuthentication,
		ResourceType: "user",
		ResourceID:   email,
		Details:      map[string]interface{}{"success": success},
	})
}

// LogRegistration records a new user registration
func (s *Service) LogRegistration(ctx context.Context, email, organization string) {
	slog.Info("User registration", "email", email, "organization", organization)

	s.Log(ctx, Event{
		Action:       ActionUserRegistration,
		ResourceType: "user",
		ResourceID:   email,
		Details:      map[string]interface{}{"organization": organization},
	})
}

// LogLockout records an account crossing the failed-attempt threshold
func (s *Service) LogLockout(ctx context.Context, email string, lockedUntil time.Time) {
	slog.Warn("Account locked", "email", email, "locked_until", lockedUntil)

	s.Log(ctx, Event{
		Action:       ActionAccountLockout,
		ResourceType: "user",
		ResourceID:   email,
		Details:      map[string]interface{}{"locked_until": lockedUntil.Format(time.RFC3339)},
	})
}

// LogResetEvent records a password-reset lifecycle event
func (s *Service) LogResetEvent(ctx context.Context, action, email string, details map[string]interface{}) {
	s.Log(ctx, Event{
		Action:       action,
		ResourceType: "user",
		ResourceID:   email,
		Details:      details,
	})
}

// Trail returns events for forensic review, newest first, optionally
// filtered to a user and limited to the trailing number of days
func (s *Service) Trail(ctx context.Context, userID *uuid.UUID, days int) ([]Event, error) {
	since := time.Now().AddDate(0, 0, -days)
	return s.repo.FindSince(ctx, userID, since)
}
