package notification

import (
	"fmt"
	"log/slog"
)

const resetSubject = "Password Reset Request"

const resetTextTemplate = `Hello,

A password reset was requested for your account.

Use the link below to choose a new password:

{{.ResetLink}}

This link expires in 60 minutes. If you did not request a reset, you can
safely ignore this email.
`

const resetHtmlTemplate = `<p>Hello,</p>
<p>A password reset was requested for your account.</p>
<p><a href="{{.ResetLink}}">Reset your password</a></p>
<p>This link expires in 60 minutes. If you did not request a reset, you can safely ignore this email.</p>
`

// ResetMailer sends password reset tokens through the manager's email
// channel. Delivery is best effort: a failure is logged with the reset
// link so an operator can hand it over manually, and never blocks the
// reset flow.
type ResetMailer struct {
	manager *NotificationManager
	baseURL string
}

// NewResetMailer registers the reset template and returns a mailer.
// A nil manager yields a console-only mailer for development setups
// without SMTP.
func NewResetMailer(manager *NotificationManager, baseURL string) (*ResetMailer, error) {
	if manager != nil {
		err := manager.RegisterNotification(PasswordResetNotice, EmailSystem, NoticeTemplate{
			Subject: resetSubject,
			Text:    resetTextTemplate,
			Html:    resetHtmlTemplate,
		})
		if err != nil {
			return nil, err
		}
	}
	return &ResetMailer{manager: manager, baseURL: baseURL}, nil
}

// SendResetEmail sends the reset link for the token to the address.
// Returns whether the email was actually delivered.
func (m *ResetMailer) SendResetEmail(to, token string) (bool, error) {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, token)

	if m.manager == nil {
		slog.Info("Email delivery disabled, printing reset link", "to", to, "link", link)
		return false, nil
	}

	err := m.manager.Send(PasswordResetNotice, EmailSystem, NotificationData{
		To: to,
		Data: map[string]string{
			"ResetLink": link,
		},
	})
	if err != nil {
		slog.Error("Failed to send reset email, printing reset link", "to", to, "link", link, "err", err)
		return false, nil
	}
	return true, nil
}
