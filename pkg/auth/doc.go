// Package auth provides the credential store, password verification and
// account lockout policy.
//
// The package handles user registration, salted password hashing (bcrypt),
// failed-attempt tracking with timed account lockout, and the audit events
// tied to every authentication outcome.
//
// # Overview
//
// The auth package provides:
//   - User registration with password complexity checks
//   - Password-based authentication
//   - Consecutive-failure tracking and timed account lockout
//   - Tolerant verification of legacy password hash encodings
//   - Repository pattern for database abstraction
//
// # Basic Usage
//
//	repo := auth.NewPostgresUserRepository(pool)
//	service := auth.NewService(repo,
//		auth.WithMaxFailedAttempts(5),
//		auth.WithLockoutDuration(30*time.Minute),
//	)
//
//	user, err := service.Authenticate(ctx, "user@example.com", "password123")
//	if err != nil {
//		// Invalid credentials or account locked
//	}
//
// Counter mutations are single atomic read-modify-write operations against
// the store, so concurrent authentication attempts against the same account
// never lose updates.
package auth
