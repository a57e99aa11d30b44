package reset

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/aigovpro/authcore/pkg/audit"
	"github.com/aigovpro/authcore/pkg/auth"
	"github.com/aigovpro/authcore/pkg/errors"
)

const (
	// DefaultTokenTTL is how long an issued token stays redeemable
	DefaultTokenTTL = 60 * time.Minute
	// DefaultRequestWindow is the trailing window the issuance limit
	// counts over
	DefaultRequestWindow = 60 * time.Minute
	// DefaultMaxRequests is the issuance limit per account per window
	DefaultMaxRequests = 3
	// DefaultRequestRetention is how long request log rows are kept
	DefaultRequestRetention = 7 * 24 * time.Hour

	tokenBytes = 32
)

// Mailer delivers a reset token to the account owner. Implementations
// report whether delivery actually happened; failures must not return an
// error for transport problems, only for misuse.
type Mailer interface {
	SendResetEmail(to, token string) (bool, error)
}

// Service implements the password reset flow
type Service struct {
	tokens           TokenRepository
	users            auth.UserRepository
	hasher           auth.PasswordHasher
	policyChecker    *auth.PolicyChecker
	mailer           Mailer
	auditRecorder    audit.Recorder
	tokenTTL         time.Duration
	requestWindow    time.Duration
	maxRequests      int32
	requestRetention time.Duration
	now              func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithMailer sets the token delivery channel
func WithMailer(mailer Mailer) Option {
	return func(s *Service) {
		s.mailer = mailer
	}
}

// WithAuditRecorder sets the audit trail recorder
func WithAuditRecorder(recorder audit.Recorder) Option {
	return func(s *Service) {
		s.auditRecorder = recorder
	}
}

// WithPasswordHasher sets the hasher used for the new password
func WithPasswordHasher(hasher auth.PasswordHasher) Option {
	return func(s *Service) {
		s.hasher = hasher
	}
}

// WithPolicyChecker sets the password policy for the new password
func WithPolicyChecker(checker *auth.PolicyChecker) Option {
	return func(s *Service) {
		s.policyChecker = checker
	}
}

// WithTokenTTL sets how long issued tokens stay redeemable
func WithTokenTTL(d time.Duration) Option {
	return func(s *Service) {
		s.tokenTTL = d
	}
}

// WithRequestLimit sets the issuance limit and its trailing window
func WithRequestLimit(max int32, window time.Duration) Option {
	return func(s *Service) {
		s.maxRequests = max
		s.requestWindow = window
	}
}

// WithRequestRetention sets how long request log rows are kept
func WithRequestRetention(d time.Duration) Option {
	return func(s *Service) {
		s.requestRetention = d
	}
}

// WithClock overrides the time source (used by tests to advance the clock)
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a reset service with the default policy
func NewService(tokens TokenRepository, users auth.UserRepository, opts ...Option) *Service {
	s := &Service{
		tokens:           tokens,
		users:            users,
		hasher:           auth.NewBcryptHasher(),
		policyChecker:    auth.NewPolicyChecker(nil),
		tokenTTL:         DefaultTokenTTL,
		requestWindow:    DefaultRequestWindow,
		maxRequests:      DefaultMaxRequests,
		requestRetention: DefaultRequestRetention,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestReset issues a reset token for the account and hands it to the
// mailer. The token value is returned alongside the delivery outcome so
// callers without working email can still surface it. Unknown accounts
// are reported as such; too many requests inside the trailing window get
// RATE_LIMIT_EXCEEDED without issuing a token.
func (s *Service) RequestReset(ctx context.Context, email string) (string, bool, error) {
	exists, err := s.users.UserExists(ctx, email)
	if err != nil {
		slog.Error("Failed to check user existence", "email", email, "err", err)
		return "", false, errors.Internal(err)
	}
	if !exists {
		return "", false, errors.New(errors.ErrCodeUserNotFound, "No account found with this email")
	}

	now := s.now()
	count, err := s.tokens.CountRecentRequests(ctx, email, now.Add(-s.requestWindow))
	if err != nil {
		slog.Error("Failed to count reset requests", "email", email, "err", err)
		return "", false, errors.Internal(err)
	}
	if count >= s.maxRequests {
		slog.Warn("Reset request limit reached", "email", email, "requests", count)
		s.logResetEvent(ctx, audit.ActionResetRateLimited, email, nil)
		return "", false, errors.New(errors.ErrCodeRateLimitExceeded, "Too many reset requests. Please try again later")
	}

	token, err := generateToken()
	if err != nil {
		slog.Error("Failed to generate reset token", "err", err)
		return "", false, errors.Internal(err)
	}

	if err := s.tokens.RecordRequest(ctx, email, now); err != nil {
		slog.Error("Failed to record reset request", "email", email, "err", err)
		return "", false, errors.Internal(err)
	}
	if _, err := s.tokens.CreateToken(ctx, email, token, now, now.Add(s.tokenTTL)); err != nil {
		slog.Error("Failed to store reset token", "email", email, "err", err)
		return "", false, errors.Internal(err)
	}

	sent := false
	if s.mailer != nil {
		sent, err = s.mailer.SendResetEmail(email, token)
		if err != nil {
			slog.Error("Reset email delivery failed", "email", email, "err", err)
			sent = false
		}
	}

	s.logResetEvent(ctx, audit.ActionResetRequested, email, map[string]interface{}{"email_sent": sent})
	return token, sent, nil
}

// VerifyResetToken checks a token without consuming it and returns the
// account email it was issued for. Unknown, expired, and already used
// tokens all come back as TOKEN_INVALID.
func (s *Service) VerifyResetToken(ctx context.Context, token string) (string, error) {
	t, err := s.lookupValidToken(ctx, token)
	if err != nil {
		return "", err
	}
	return t.Email, nil
}

// ResetPassword consumes the token and sets the new password. Consumption
// is first-wins, so a token can only ever change one password. A
// successful reset also clears any lockout on the account.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	t, err := s.lookupValidToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.policyChecker.Check(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		slog.Error("Failed to hash new password", "err", err)
		return errors.Internal(err)
	}

	// Consume before writing the password so a concurrent redeem of the
	// same token loses here instead of double-writing
	if err := s.tokens.ConsumeToken(ctx, token, s.now()); err != nil {
		if err == ErrTokenNotFound || err == ErrTokenConsumed {
			return errors.New(errors.ErrCodeTokenInvalid, "Invalid or expired reset token")
		}
		slog.Error("Failed to consume reset token", "err", err)
		return errors.Internal(err)
	}

	if err := s.users.UpdatePasswordAndClearLock(ctx, t.Email, hash); err != nil {
		slog.Error("Failed to update password", "email", t.Email, "err", err)
		return errors.Internal(err)
	}

	s.logResetEvent(ctx, audit.ActionResetCompleted, t.Email, nil)
	return nil
}

// CleanupResult reports what a cleanup pass removed
type CleanupResult struct {
	TokensDeleted   int64
	RequestsDeleted int64
}

// CleanupExpired removes expired and consumed tokens plus request log
// rows past retention. Idempotent; a second pass removes nothing.
func (s *Service) CleanupExpired(ctx context.Context) (CleanupResult, error) {
	now := s.now()

	tokens, err := s.tokens.DeleteExpiredTokens(ctx, now)
	if err != nil {
		return CleanupResult{}, errors.Internal(err)
	}
	requests, err := s.tokens.DeleteOldRequests(ctx, now.Add(-s.requestRetention))
	if err != nil {
		return CleanupResult{TokensDeleted: tokens}, errors.Internal(err)
	}

	slog.Info("Reset cleanup complete", "tokens_deleted", tokens, "requests_deleted", requests)
	return CleanupResult{TokensDeleted: tokens, RequestsDeleted: requests}, nil
}

func (s *Service) lookupValidToken(ctx context.Context, token string) (Token, error) {
	t, err := s.tokens.FindToken(ctx, token)
	if err != nil {
		if err == ErrTokenNotFound {
			return Token{}, errors.New(errors.ErrCodeTokenInvalid, "Invalid or expired reset token")
		}
		slog.Error("Failed to look up reset token", "err", err)
		return Token{}, errors.Internal(err)
	}
	if !t.UsedAt.IsZero() || !s.now().Before(t.ExpiresAt) {
		return Token{}, errors.New(errors.ErrCodeTokenInvalid, "Invalid or expired reset token")
	}
	return t, nil
}

func (s *Service) logResetEvent(ctx context.Context, action string, email string, details map[string]interface{}) {
	if s.auditRecorder == nil {
		return
	}
	s.auditRecorder.Log(ctx, audit.Event{
		Action:       action,
		ResourceType: "user",
		ResourceID:   email,
		Details:      details,
	})
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
