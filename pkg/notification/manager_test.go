package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterNotification(t *testing.T) {
	tests := []struct {
		name       string
		noticeType NoticeType
		system     NotificationSystem
		template   NoticeTemplate
		wantErr    bool
	}{
		{
			name:       "valid template",
			noticeType: PasswordResetNotice,
			system:     EmailSystem,
			template:   NoticeTemplate{Subject: "Reset", Text: "body"},
			wantErr:    false,
		},
		{
			name:       "html only",
			noticeType: PasswordResetNotice,
			system:     EmailSystem,
			template:   NoticeTemplate{Html: "<p>body</p>"},
			wantErr:    false,
		},
		{
			name:       "empty notice type",
			noticeType: "",
			system:     EmailSystem,
			template:   NoticeTemplate{Subject: "Reset"},
			wantErr:    true,
		},
		{
			name:       "empty system",
			noticeType: PasswordResetNotice,
			system:     "",
			template:   NoticeTemplate{Subject: "Reset"},
			wantErr:    true,
		},
		{
			name:       "empty template",
			noticeType: PasswordResetNotice,
			system:     EmailSystem,
			template:   NoticeTemplate{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nm := NewNotificationManager()
			err := nm.RegisterNotification(tt.noticeType, tt.system, tt.template)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSend(t *testing.T) {
	nm := NewNotificationManager()
	mock := &MockNotifier{}
	nm.RegisterNotifier(EmailSystem, mock)
	require.NoError(t, nm.RegisterNotification(PasswordResetNotice, EmailSystem, NoticeTemplate{
		Subject: "Reset",
		Text:    "body",
	}))

	err := nm.Send(PasswordResetNotice, EmailSystem, NotificationData{To: "alice@example.com"})
	require.NoError(t, err)
	require.Len(t, mock.SentNotifications, 1)
	assert.Equal(t, "alice@example.com", mock.SentNotifications[0].To)
}

func TestSendUnregistered(t *testing.T) {
	nm := NewNotificationManager()

	err := nm.Send(PasswordResetNotice, EmailSystem, NotificationData{To: "alice@example.com"})
	assert.Error(t, err, "no template registered")

	require.NoError(t, nm.RegisterNotification(PasswordResetNotice, EmailSystem, NoticeTemplate{Subject: "Reset"}))
	err = nm.Send(PasswordResetNotice, EmailSystem, NotificationData{To: "alice@example.com"})
	assert.Error(t, err, "no notifier registered")
}

func TestResetMailer(t *testing.T) {
	nm := NewNotificationManager()
	mock := &MockNotifier{}
	nm.RegisterNotifier(EmailSystem, mock)

	mailer, err := NewResetMailer(nm, "http://localhost:4000")
	require.NoError(t, err)

	sent, err := mailer.SendResetEmail("alice@example.com", "tok123")
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, mock.SentNotifications, 1)
	assert.Equal(t, "alice@example.com", mock.SentNotifications[0].To)
	assert.Contains(t, mock.SentNotifications[0].Data["ResetLink"], "tok123")
}

func TestResetMailerDeliveryFailure(t *testing.T) {
	nm := NewNotificationManager()
	nm.RegisterNotifier(EmailSystem, &MockNotifier{FailWith: assert.AnError})

	mailer, err := NewResetMailer(nm, "http://localhost:4000")
	require.NoError(t, err)

	sent, err := mailer.SendResetEmail("alice@example.com", "tok123")
	require.NoError(t, err, "transport trouble is reported, not returned")
	assert.False(t, sent)
}

func TestResetMailerConsoleOnly(t *testing.T) {
	mailer, err := NewResetMailer(nil, "http://localhost:4000")
	require.NoError(t, err)

	sent, err := mailer.SendResetEmail("alice@example.com", "tok123")
	require.NoError(t, err)
	assert.False(t, sent)
}
