package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/aigovpro/authcore/pkg/auth"
)

type DbConfig struct {
	Host     string `env:"AUTH_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"AUTH_PG_PORT" env-default:"5432"`
	Database string `env:"AUTH_PG_DATABASE" env-default:"auth_db"`
	User     string `env:"AUTH_PG_USER" env-default:"auth"`
	Password string `env:"AUTH_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"AUTH_PG_SCHEMA" env-default:"public"`
}

func (d DbConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

type EmailConfig struct {
	Enabled  bool   `env:"EMAIL_ENABLED" env-default:"false"`
	Host     string `env:"EMAIL_HOST" env-default:"localhost"`
	Port     uint16 `env:"EMAIL_PORT" env-default:"1025"`
	Username string `env:"EMAIL_USERNAME" env-default:""`
	Password string `env:"EMAIL_PASSWORD" env-default:""`
	From     string `env:"EMAIL_FROM" env-default:"noreply@example.com"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
}

type LockoutConfig struct {
	MaxFailedAttempts int32  `env:"LOCKOUT_MAX_FAILED_ATTEMPTS" env-default:"5"`
	LockoutDuration   string `env:"LOCKOUT_DURATION" env-default:"30m"`
}

type ResetConfig struct {
	TokenExpiry      string `env:"RESET_TOKEN_EXPIRY" env-default:"60m"`
	MaxRequests      int32  `env:"RESET_MAX_REQUESTS" env-default:"3"`
	RequestWindow    string `env:"RESET_REQUEST_WINDOW" env-default:"60m"`
	RequestRetention string `env:"RESET_REQUEST_RETENTION" env-default:"168h"`
}

type RateLimitConfig struct {
	MaxAttempts  int32  `env:"RATELIMIT_MAX_ATTEMPTS" env-default:"5"`
	Window       string `env:"RATELIMIT_WINDOW" env-default:"15m"`
	LockDuration string `env:"RATELIMIT_LOCK_DURATION" env-default:"30m"`
}

type PasswordComplexityConfig struct {
	RequiredDigit       bool `env:"PASSWORD_COMPLEXITY_REQUIRE_DIGIT" env-default:"true"`
	RequiredLowercase   bool `env:"PASSWORD_COMPLEXITY_REQUIRE_LOWERCASE" env-default:"true"`
	RequiredUppercase   bool `env:"PASSWORD_COMPLEXITY_REQUIRE_UPPERCASE" env-default:"true"`
	RequiredSpecialChar bool `env:"PASSWORD_COMPLEXITY_REQUIRE_SPECIAL_CHAR" env-default:"true"`
	RequiredMinLength   int  `env:"PASSWORD_COMPLEXITY_REQUIRED_MIN_LENGTH" env-default:"12"`
	DisallowCommonPwds  bool `env:"PASSWORD_COMPLEXITY_DISALLOW_COMMON_PWDS" env-default:"false"`
	MaxRepeatedChars    int  `env:"PASSWORD_COMPLEXITY_MAX_REPEATED_CHARS" env-default:"3"`
}

// ToPasswordPolicy converts the env config into the policy the auth
// package enforces
func (c PasswordComplexityConfig) ToPasswordPolicy() *auth.PasswordPolicy {
	return &auth.PasswordPolicy{
		MinLength:           c.RequiredMinLength,
		RequireUppercase:    c.RequiredUppercase,
		RequireLowercase:    c.RequiredLowercase,
		RequireDigit:        c.RequiredDigit,
		RequireSpecialChar:  c.RequiredSpecialChar,
		DisallowCommonWords: c.DisallowCommonPwds,
		MaxRepeatedChars:    c.MaxRepeatedChars,
	}
}

type ServerConfig struct {
	Host string `env:"SERVER_HOST" env-default:"localhost"`
	Port uint16 `env:"SERVER_PORT" env-default:"4000"`
}

type Config struct {
	BaseUrl                  string `env:"BASE_URL" env-default:"http://localhost:4000"`
	SeedDemoAccounts         bool   `env:"SEED_DEMO_ACCOUNTS" env-default:"false"`
	DbConfig                 DbConfig
	EmailConfig              EmailConfig
	LockoutConfig            LockoutConfig
	ResetConfig              ResetConfig
	RateLimitConfig          RateLimitConfig
	PasswordComplexityConfig PasswordComplexityConfig
	ServerConfig             ServerConfig
}

// LoadEnvFile loads environment variables from a .env file if one exists
// next to the executable or in the working directory. Variables already
// set in the environment win.
func LoadEnvFile() {
	execPath, err := os.Executable()
	if err != nil {
		slog.Error("Failed to get executable path", "error", err)
		return
	}

	execDir := filepath.Dir(execPath)
	envFile := filepath.Join(execDir, ".env")

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		cwd, err := os.Getwd()
		if err != nil {
			slog.Error("Failed to get current working directory", "error", err)
			return
		}
		envFile = filepath.Join(cwd, ".env")
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		slog.Info("No .env file found", "path", envFile)
		return
	}

	slog.Info("Loading configuration from .env file", "path", envFile)
	if err := godotenv.Load(envFile); err != nil {
		slog.Error("Failed to load .env file", "error", err, "path", envFile)
		return
	}
}
