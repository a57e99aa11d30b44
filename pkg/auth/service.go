package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aigovpro/authcore/pkg/audit"
	"github.com/aigovpro/authcore/pkg/errors"
)

// Service handles credential lifecycle and the account lockout policy
type Service struct {
	repo              UserRepository
	hasher            PasswordHasher
	policyChecker     *PolicyChecker
	auditRecorder     audit.Recorder
	maxFailedAttempts int32
	lockoutDuration   time.Duration
	now               func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithPasswordHasher sets the password hasher
func WithPasswordHasher(hasher PasswordHasher) Option {
	return func(s *Service) {
		s.hasher = hasher
	}
}

// WithPolicyChecker sets the password policy checker
func WithPolicyChecker(checker *PolicyChecker) Option {
	return func(s *Service) {
		s.policyChecker = checker
	}
}

// WithAuditRecorder sets the audit trail recorder
func WithAuditRecorder(recorder audit.Recorder) Option {
	return func(s *Service) {
		s.auditRecorder = recorder
	}
}

// WithMaxFailedAttempts sets the consecutive-failure threshold for lockout
func WithMaxFailedAttempts(max int32) Option {
	return func(s *Service) {
		s.maxFailedAttempts = max
	}
}

// WithLockoutDuration sets how long a crossed threshold locks the account
func WithLockoutDuration(d time.Duration) Option {
	return func(s *Service) {
		s.lockoutDuration = d
	}
}

// WithClock overrides the time source (used by tests to advance the clock)
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an auth service with the given repository and options
func NewService(repo UserRepository, opts ...Option) *Service {
	s := &Service{
		repo:              repo,
		hasher:            NewBcryptHasher(),
		policyChecker:     NewPolicyChecker(nil),
		maxFailedAttempts: 5,
		lockoutDuration:   30 * time.Minute,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LockoutDuration returns the configured lockout duration
func (s *Service) LockoutDuration() time.Duration {
	return s.lockoutDuration
}

// CreateUser registers a new credential record. The role defaults to "user"
// when empty; the failed-attempt counter starts at zero and the account is
// active. A duplicate email returns USER_ALREADY_EXISTS with the message
// the caller renders verbatim.
func (s *Service) CreateUser(ctx context.Context, email, password, fullName, organization, role string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, errors.InvalidInput("email", "must not be empty")
	}

	if err := s.policyChecker.Check(password); err != nil {
		return User{}, err
	}

	if role == "" {
		role = RoleUser
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		slog.Error("Failed to hash password", "err", err)
		return User{}, errors.Internal(err)
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Organization: organization,
		Role:         role,
	})
	if err != nil {
		if err == ErrDuplicateEmail {
			return User{}, errors.New(errors.ErrCodeUserAlreadyExists, "Email already registered")
		}
		slog.Error("Failed to create user", "email", email, "err", err)
		return User{}, errors.Internal(err)
	}

	if s.auditRecorder != nil {
		s.auditRecorder.Log(ctx, audit.Event{
			UserID:       &user.ID,
			Action:       audit.ActionUserRegistration,
			ResourceType: "user",
			ResourceID:   email,
			Details:      map[string]interface{}{"organization": organization},
		})
	}

	return user, nil
}

// GetUser reports whether a credential record exists for the email.
// Existence is exposed separately from Authenticate so callers can say
// "not registered" without Authenticate ever leaking it.
func (s *Service) GetUser(ctx context.Context, email string) (bool, error) {
	exists, err := s.repo.UserExists(ctx, email)
	if err != nil {
		slog.Error("Failed to check user existence", "email", email, "err", err)
		return false, errors.Internal(err)
	}
	return exists, nil
}

// Authenticate verifies the password for the account and drives the lockout
// state machine. Unknown and inactive accounts return INVALID_CREDENTIALS;
// a live lock returns USER_LOCKED without comparing the hash; a wrong
// password increments the counter and locks the account when the
// post-increment count reaches the threshold.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if err == ErrUserNotFound {
			s.logAuthOutcome(ctx, email, false)
			return User{}, errors.New(errors.ErrCodeInvalidCredentials, "invalid email or password")
		}
		slog.Error("Failed to look up user", "email", email, "err", err)
		return User{}, errors.Internal(err)
	}

	if !user.IsActive {
		s.logAuthOutcome(ctx, email, false)
		return User{}, errors.New(errors.ErrCodeInvalidCredentials, "invalid email or password")
	}

	now := s.now()
	if !user.LockedUntil.IsZero() && now.Before(user.LockedUntil) {
		s.logAuthOutcome(ctx, email, false)
		return User{}, errors.New(errors.ErrCodeUserLocked, "account is temporarily locked").
			WithDetail("locked_until", user.LockedUntil)
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		// Operational hashing failure; treated as a failed attempt below
		slog.Error("Password verification error", "email", email, "err", err)
	}

	if valid {
		if err := s.repo.RecordLoginSuccess(ctx, email, now); err != nil {
			slog.Error("Failed to record login success", "email", email, "err", err)
			return User{}, errors.Internal(err)
		}
		s.logAuthOutcome(ctx, email, true)
		user.FailedLoginAttempts = 0
		user.LockedUntil = time.Time{}
		user.LastLogin = now
		return user, nil
	}

	lockUntil := now.Add(s.lockoutDuration)
	count, err := s.repo.RecordLoginFailure(ctx, email, s.maxFailedAttempts, lockUntil)
	if err != nil {
		slog.Error("Failed to record login failure", "email", email, "err", err)
		return User{}, errors.Internal(err)
	}

	s.logAuthOutcome(ctx, email, false)
	if count >= s.maxFailedAttempts {
		slog.Warn("Failed-attempt threshold crossed", "email", email, "attempts", count, "locked_until", lockUntil)
		if s.auditRecorder != nil {
			s.auditRecorder.Log(ctx, audit.Event{
				UserID:       &user.ID,
				Action:       audit.ActionAccountLockout,
				ResourceType: "user",
				ResourceID:   email,
				Details:      map[string]interface{}{"locked_until": lockUntil.Format(time.RFC3339)},
			})
		}
	}

	return User{}, errors.New(errors.ErrCodeInvalidCredentials, "invalid email or password")
}

// IsAccountLocked reports whether the account currently rejects all
// authentication attempts. Unknown accounts are not locked.
func (s *Service) IsAccountLocked(ctx context.Context, email string) (bool, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if err == ErrUserNotFound {
			return false, nil
		}
		return false, errors.Internal(err)
	}
	return !user.LockedUntil.IsZero() && s.now().Before(user.LockedUntil), nil
}

// Deactivate soft-deactivates an account; the core never hard-deletes
func (s *Service) Deactivate(ctx context.Context, email string) error {
	if err := s.repo.Deactivate(ctx, email); err != nil {
		if err == ErrUserNotFound {
			return errors.NotFound("user", email)
		}
		return errors.Internal(err)
	}
	return nil
}

func (s *Service) logAuthOutcome(ctx context.Context, email string, success bool) {
	if s.auditRecorder == nil {
		return
	}
	s.auditRecorder.Log(ctx, audit.Event{
		Action:       audit.ActionAuthentication,
		ResourceType: "user",
		ResourceID:   email,
		Details:      map[string]interface{}{"success": success},
	})
}
