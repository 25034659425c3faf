package config

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Migration modes accepted by MIGRATION_MODE.
const (
	MigrationSQL  = "sql"
	MigrationAuto = "auto"
	MigrationNone = "none"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"gather-backend"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	// ✅ Database
	DatabaseURL   string `env:"DATABASE_URL"`
	DBHost        string `env:"DB_HOST" envDefault:"localhost"`
	DBPort        string `env:"DB_PORT" envDefault:"5432"`
	DBUser        string `env:"DB_USER" envDefault:"postgres"`
	DBPassword    string `env:"DB_PASSWORD"`
	DBName        string `env:"DB_NAME" envDefault:"gather"`
	DBSSLMode     string `env:"DB_SSLMODE" envDefault:"disable"`
	MigrationMode string `env:"MIGRATION_MODE" envDefault:"sql"`

	// ✅ Supabase (identity provider)
	SupabaseURL       string `env:"SUPABASE_URL"`
	SupabaseAnonKey   string `env:"SUPABASE_ANON_KEY"`
	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET"`

	// ✅ Redis Config
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// ✅ Kafka Config
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"gather.events"`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"gather-notifications"`

	// ✅ SMTP Config
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername  string `env:"SMTP_USERNAME"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	SMTPFromName  string `env:"SMTP_FROM_NAME" envDefault:"Gather"`
	SMTPFromEmail string `env:"SMTP_FROM_EMAIL"`

	// ✅ FCM Config
	FCMCredentialsPath string `env:"FCM_CREDENTIALS_PATH"` // Path to Firebase service account JSON
	FCMProjectID       string `env:"FCM_PROJECT_ID"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	RateLimit   string   `env:"RATE_LIMIT" envDefault:"100-M"`

	// Events
	EnforceCapacity  bool          `env:"ENFORCE_CAPACITY" envDefault:"false"`
	InvitePreviewTTL time.Duration `env:"INVITE_PREVIEW_TTL" envDefault:"5m"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, using environment variables")
	}

	cfg, err := Parse()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	return cfg
}

// Parse builds a Config from the current environment without touching .env.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.MigrationMode {
	case MigrationSQL, MigrationAuto, MigrationNone:
	default:
		return nil, fmt.Errorf("MIGRATION_MODE must be one of sql, auto, none (got %q)", cfg.MigrationMode)
	}
	if cfg.InvitePreviewTTL < 0 {
		return nil, fmt.Errorf("INVITE_PREVIEW_TTL must not be negative")
	}
	return &cfg, nil
}

// DSN returns DATABASE_URL when set, otherwise a postgres URL built from DB_* keys.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

// SMTPEnabled reports whether outgoing email is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFromEmail != ""
}
