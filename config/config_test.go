package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.EnforceCapacity {
		t.Error("EnforceCapacity should default to false")
	}
	if cfg.InvitePreviewTTL != 5*time.Minute {
		t.Errorf("InvitePreviewTTL = %v, want 5m", cfg.InvitePreviewTTL)
	}
	if cfg.KafkaTopic != "gather.events" {
		t.Errorf("KafkaTopic = %q", cfg.KafkaTopic)
	}
	if cfg.RateLimit != "100-M" {
		t.Errorf("RateLimit = %q", cfg.RateLimit)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("MIGRATION_MODE", "auto")
	t.Setenv("ENFORCE_CAPACITY", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("INVITE_PREVIEW_TTL", "30s")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.MigrationMode != MigrationAuto {
		t.Errorf("MigrationMode = %q", cfg.MigrationMode)
	}
	if !cfg.EnforceCapacity {
		t.Error("EnforceCapacity = false, want true")
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.InvitePreviewTTL != 30*time.Second {
		t.Errorf("InvitePreviewTTL = %v", cfg.InvitePreviewTTL)
	}
}

func TestParseRejectsUnknownMigrationMode(t *testing.T) {
	t.Setenv("MIGRATION_MODE", "yolo")
	if _, err := Parse(); err == nil {
		t.Fatal("expected error for unknown MIGRATION_MODE")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5432", DBUser: "gather", DBPassword: "p@ss", DBName: "gather", DBSSLMode: "disable"}
	dsn := cfg.DSN()
	if !strings.HasPrefix(dsn, "postgres://gather:p%40ss@db:5432/gather") {
		t.Errorf("DSN = %q", dsn)
	}
	if !strings.HasSuffix(dsn, "sslmode=disable") {
		t.Errorf("DSN = %q, missing sslmode", dsn)
	}

	cfg.DatabaseURL = "postgres://override"
	if cfg.DSN() != "postgres://override" {
		t.Errorf("DATABASE_URL should win, got %q", cfg.DSN())
	}
}
