package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/aigovpro/authcore/pkg/audit"
	"github.com/aigovpro/authcore/pkg/auth"
	authapi "github.com/aigovpro/authcore/pkg/auth/api"
	"github.com/aigovpro/authcore/pkg/config"
	"github.com/aigovpro/authcore/pkg/db"
	"github.com/aigovpro/authcore/pkg/notification"
	"github.com/aigovpro/authcore/pkg/ratelimit"
	"github.com/aigovpro/authcore/pkg/reset"
	resetapi "github.com/aigovpro/authcore/pkg/reset/api"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
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

	auditService := audit.NewService(audit.NewPostgresRepository(pool))

	policyChecker := auth.NewPolicyChecker(cfg.PasswordComplexityConfig.ToPasswordPolicy())
	hasher := auth.NewBcryptHasher()

	lockoutDuration, err := time.ParseDuration(cfg.LockoutConfig.LockoutDuration)
	if err != nil {
		slog.Error("Failed to parse lockout duration", "err", err)
		os.Exit(-1)
	}

	userRepo := auth.NewPostgresUserRepository(pool)
	authService := auth.NewService(
		userRepo,
		auth.WithPasswordHasher(hasher),
		auth.WithPolicyChecker(policyChecker),
		auth.WithAuditRecorder(auditService),
		auth.WithMaxFailedAttempts(cfg.LockoutConfig.MaxFailedAttempts),
		auth.WithLockoutDuration(lockoutDuration),
	)
	slog.Info("Auth service created", "maxFailedAttempts", cfg.LockoutConfig.MaxFailedAttempts, "lockoutDuration", authService.LockoutDuration())

	var notificationManager *notification.NotificationManager
	if cfg.EmailConfig.Enabled {
		emailNotifier, err := notification.NewEmailNotifier(notification.SMTPConfig{
			Host:     cfg.EmailConfig.Host,
			Port:     int(cfg.EmailConfig.Port),
			Username: cfg.EmailConfig.Username,
			Password: cfg.EmailConfig.Password,
			From:     cfg.EmailConfig.From,
			TLS:      cfg.EmailConfig.TLS,
		})
		if err != nil {
			slog.Error("Failed to create email notifier", "err", err)
			os.Exit(-1)
		}
		notificationManager = notification.NewNotificationManager()
		notificationManager.RegisterNotifier(notification.EmailSystem, emailNotifier)
	} else {
		slog.Info("Email delivery disabled, reset links are logged instead")
	}

	resetMailer, err := notification.NewResetMailer(notificationManager, cfg.BaseUrl)
	if err != nil {
		slog.Error("Failed to create reset mailer", "err", err)
		os.Exit(-1)
	}

	tokenExpiry, err := time.ParseDuration(cfg.ResetConfig.TokenExpiry)
	if err != nil {
		slog.Error("Failed to parse reset token expiry", "err", err)
		os.Exit(-1)
	}
	requestWindow, err := time.ParseDuration(cfg.ResetConfig.RequestWindow)
	if err != nil {
		slog.Error("Failed to parse reset request window", "err", err)
		os.Exit(-1)
	}
	requestRetention, err := time.ParseDuration(cfg.ResetConfig.RequestRetention)
	if err != nil {
		slog.Error("Failed to parse reset request retention", "err", err)
		os.Exit(-1)
	}

	resetService := reset.NewService(
		reset.NewPostgresTokenRepository(pool),
		userRepo,
		reset.WithMailer(resetMailer),
		reset.WithAuditRecorder(auditService),
		reset.WithPasswordHasher(hasher),
		reset.WithPolicyChecker(policyChecker),
		reset.WithTokenTTL(tokenExpiry),
		reset.WithRequestLimit(cfg.ResetConfig.MaxRequests, requestWindow),
		reset.WithRequestRetention(requestRetention),
	)

	limiterWindow, err := time.ParseDuration(cfg.RateLimitConfig.Window)
	if err != nil {
		slog.Error("Failed to parse rate limit window", "err", err)
		os.Exit(-1)
	}
	limiterLock, err := time.ParseDuration(cfg.RateLimitConfig.LockDuration)
	if err != nil {
		slog.Error("Failed to parse rate limit lock duration", "err", err)
		os.Exit(-1)
	}
	limiter := ratelimit.NewLimiter(
		ratelimit.NewPostgresRepository(pool),
		ratelimit.WithMaxAttempts(cfg.RateLimitConfig.MaxAttempts),
		ratelimit.WithWindow(limiterWindow),
		ratelimit.WithLockDuration(limiterLock),
	)

	if cfg.SeedDemoAccounts {
		if err := auth.SeedDemoAccounts(ctx, userRepo, hasher); err != nil {
			slog.Error("Failed to seed demo accounts", "err", err)
			os.Exit(-1)
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		render.PlainText(w, req, http.StatusText(http.StatusOK))
	})

	authapi.NewHandle(authService, authapi.WithLimiter(limiter)).RegisterRoutes(r)
	resetapi.NewHandle(resetService).RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.ServerConfig.Host, cfg.ServerConfig.Port)
	slog.Info("Starting server", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("Server stopped", "err", err)
		os.Exit(-1)
	}
}
