package auth

import (
	"context"
	"log/slog"
)

// DemoPassword is the shared password for the seeded demo accounts
const DemoPassword = "demo"

type demoAccount struct {
	email        string
	fullName     string
	organization string
	role         string
}

var demoAccounts = []demoAccount{
	{email: "user@demo.com", fullName: "Demo User", organization: "Demo Organization", role: RoleUser},
	{email: "admin@demo.com", fullName: "Demo Admin", organization: "Demo Organization", role: RoleAdmin},
}

// SeedDemoAccounts creates the demo accounts if they do not already exist.
// The demo password predates the complexity policy, so the accounts are
// written through the repository with a pre-computed hash rather than
// through CreateUser.
func SeedDemoAccounts(ctx context.Context, repo UserRepository, hasher PasswordHasher) error {
	hash, err := hasher.Hash(DemoPassword)
	if err != nil {
		return err
	}

	for _, acct := range demoAccounts {
		exists, err := repo.UserExists(ctx, acct.email)
		if err != nil {
			return err
		}
		if exists {
			slog.Info("Demo account already present", "email", acct.email)
			continue
		}
		if _, err := repo.CreateUser(ctx, CreateUserParams{
			Email:        acct.email,
			PasswordHash: hash,
			FullName:     acct.fullName,
			Organization: acct.organization,
			Role:         acct.role,
		}); err != nil && err != ErrDuplicateEmail {
			return err
		}
		slog.Info("Seeded demo account", "email", acct.email, "role", acct.role)
	}
	return nil
}
