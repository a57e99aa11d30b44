package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepository struct{}

func (f *failingRepository) Insert(ctx context.Context, event Event) error {
	return errors.New("db down")
}

func (f *failingRepository) FindSince(ctx context.Context, userID *uuid.UUID, since time.Time) ([]Event, error) {
	return nil, errors.New("db down")
}

func TestLogRecordsEvent(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo)

	svc.Log(context.Background(), Event{
		Action:       ActionAuthentication,
		ResourceType: "user",
		ResourceID:   "alice@example.com",
		Details:      map[string]interface{}{"success": true},
	})

	events := repo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, ActionAuthentication, events[0].Action)
	assert.Equal(t, "alice@example.com", events[0].ResourceID)
	assert.False(t, events[0].Timestamp.IsZero(), "missing timestamp must be filled in")
}

func TestLogSwallowsPersistenceFailure(t *testing.T) {
	svc := NewService(&failingRepository{})

	// Must not panic and must not surface the failure to the caller
	svc.Log(context.Background(), Event{Action: ActionAuthentication})
}

func TestHelpers(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	svc.LogAuthentication(ctx, "alice@example.com", false)
	svc.LogRegistration(ctx, "alice@example.com", "Acme")
	svc.LogLockout(ctx, "alice@example.com", time.Now().Add(30*time.Minute))
	svc.LogResetEvent(ctx, ActionResetRequested, "alice@example.com", nil)

	events := repo.Events()
	require.Len(t, events, 4)

	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, ActionAuthentication)
	assert.Contains(t, actions, ActionUserRegistration)
	assert.Contains(t, actions, ActionAccountLockout)
	assert.Contains(t, actions, ActionResetRequested)
}

func TestTrail(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	userID := uuid.New()
	otherID := uuid.New()

	svc.Log(ctx, Event{UserID: &userID, Action: ActionAuthentication, Timestamp: time.Now().Add(-2 * time.Hour)})
	svc.Log(ctx, Event{UserID: &userID, Action: ActionAccountLockout, Timestamp: time.Now()})
	svc.Log(ctx, Event{UserID: &otherID, Action: ActionAuthentication, Timestamp: time.Now()})
	svc.Log(ctx, Event{UserID: &userID, Action: ActionAuthentication, Timestamp: time.Now().Add(-48 * time.Hour)})

	events, err := svc.Trail(ctx, &userID, 1)
	require.NoError(t, err)
	require.Len(t, events, 2, "only this user's events inside the window")
	for _, e := range events {
		assert.Equal(t, userID, *e.UserID)
	}
}
