package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"APP_ENV,default=development"`
	Port     string `env:"PORT,default=5001"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	// DatabaseURL empty means the in-memory store.
	DatabaseURL     string        `env:"DATABASE_URL"`
	DBMaxOpenConns  int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBMaxIdleConns  int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBConnMaxLife   time.Duration `env:"DB_CONN_MAX_LIFE,default=30m"`
	DBAutoMigrate   bool          `env:"DB_AUTO_MIGRATE,default=true"`
	RedisURL        string        `env:"REDIS_URL"`
	FrontendURL     string        `env:"FRONTEND_URL,default=http://localhost:5173"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT,default=15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	SessionTTL    time.Duration `env:"SESSION_TTL,default=24h"`
	SessionCookie string        `env:"SESSION_COOKIE,default=connect.sid"`

	MaxResumeBytes  int64 `env:"MAX_RESUME_BYTES,default=5242880"`
	MaxPictureBytes int64 `env:"MAX_PICTURE_BYTES,default=2097152"`

	ApplyRateLimit  int           `env:"APPLY_RATE_LIMIT,default=3"`
	ApplyRateWindow time.Duration `env:"APPLY_RATE_WINDOW,default=1m"`

	EmailFrom            string `env:"EMAIL_USER"`
	GmailCredentialsFile string `env:"GMAIL_CREDENTIALS_FILE,default=credential.json"`
	GmailTokenFile       string `env:"GMAIL_TOKEN_FILE,default=token.json"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL,default=10s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE,default=20"`
	OutboxLease        time.Duration `env:"OUTBOX_LEASE,default=2m"`
	OutboxMaxAttempts  int           `env:"OUTBOX_MAX_ATTEMPTS,default=6"`
	OutboxBaseBackoff  time.Duration `env:"OUTBOX_BASE_BACKOFF,default=30s"`
	OutboxMaxBackoff   time.Duration `env:"OUTBOX_MAX_BACKOFF,default=1h"`
	OutboxSendRate     float64       `env:"OUTBOX_SEND_RATE,default=2"`
	OutboxRetention    time.Duration `env:"OUTBOX_RETENTION,default=168h"`
	MaintenanceSpec    string        `env:"MAINTENANCE_SCHEDULE,default=@every 1h"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL,default=gemini-2.5-flash"`
}

// Load reads .env when present, then decodes the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Port == "":
		return errors.New("PORT is required")
	case c.SessionTTL <= 0:
		return errors.New("SESSION_TTL must be positive")
	case c.MaxResumeBytes <= 0:
		return errors.New("MAX_RESUME_BYTES must be positive")
	case c.OutboxBatchSize <= 0:
		return errors.New("OUTBOX_BATCH_SIZE must be positive")
	case c.OutboxMaxAttempts <= 0:
		return errors.New("OUTBOX_MAX_ATTEMPTS must be positive")
	case c.OutboxSendRate <= 0:
		return errors.New("OUTBOX_SEND_RATE must be positive")
	}
	return nil
}

func (c *Config) Production() bool {
	return c.Env == "production"
}
