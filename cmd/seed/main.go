package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/aigovpro/authcore/pkg/auth"
	"github.com/aigovpro/authcore/pkg/config"
	"github.com/aigovpro/authcore/pkg/db"
)

// Seeds the demo accounts. Safe to run more than once; existing accounts
// are left untouched.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	slog.SetDefault(logger)

	config.LoadEnvFile()

	cfg := config.Config{}
	cleanenv.ReadEnv(&cfg)

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DbConfig.ToDatabaseURL())
	if err != nil {
		slog.Error("Failed creating dbpool", "db", cfg.DbConfig.Database, "host", cfg.DbConfig.Host, "err", err)
		os.Exit(-1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		slog.Error("Failed migrating database", "err", err)
		os.Exit(-1)
	}

	repo := auth.NewPostgresUserRepository(pool)
	if err := auth.SeedDemoAccounts(ctx, repo, auth.NewBcryptHasher()); err != nil {
		slog.Error("Failed to seed demo accounts", "err", err)
		os.Exit(-1)
	}

	slog.Info("Demo accounts ready")
}
