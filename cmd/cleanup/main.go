package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/aigovpro/authcore/pkg/config"
	"github.com/aigovpro/authcore/pkg/db"
	"github.com/aigovpro/authcore/pkg/ratelimit"
	"github.com/aigovpro/authcore/pkg/reset"
)

// Removes expired reset tokens, aged request log rows and stale rate
// limit records. Run from cron; takes no arguments and is safe to run
// repeatedly.
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

	requestRetention, err := time.ParseDuration(cfg.ResetConfig.RequestRetention)
	if err != nil {
		slog.Error("Failed to parse reset request retention", "err", err)
		os.Exit(-1)
	}

	resetService := reset.NewService(
		reset.NewPostgresTokenRepository(pool),
		nil,
		reset.WithRequestRetention(requestRetention),
	)

	result, err := resetService.CleanupExpired(ctx)
	if err != nil {
		slog.Error("Reset cleanup failed", "err", err)
		os.Exit(-1)
	}

	limiter := ratelimit.NewLimiter(ratelimit.NewPostgresRepository(pool))
	locksRemoved, err := limiter.CleanupExpiredLocks(ctx)
	if err != nil {
		slog.Error("Rate limit cleanup failed", "err", err)
		os.Exit(-1)
	}

	slog.Info("Cleanup finished",
		"tokens_deleted", result.TokensDeleted,
		"requests_deleted", result.RequestsDeleted,
		"rate_limit_records_deleted", locksRemoved)
}
