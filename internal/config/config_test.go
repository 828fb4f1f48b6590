package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("SESSION_TTL_HOURS", "")
	t.Setenv("MIGRATE_ON_START", "")

	cfg := Load()
	if cfg.Address() != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Address())
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected default origins %v", cfg.AllowedOrigins)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("expected 12h session, got %s", cfg.SessionTTL)
	}
	if cfg.MigrateOnStart {
		t.Error("migrations must be opt-in")
	}
}

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("OPERATOR_PASSWORD_HASH", "")

	cfg := Load()
	if cfg.JWTSecret != "" {
		t.Fatalf("expected empty JWT_SECRET when unset, got %q", cfg.JWTSecret)
	}
	if err := cfg.ValidateServer(); err == nil {
		t.Fatal("expected server validation to fail without secrets")
	}
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("SESSION_TTL_HOURS", "not-a-number")
	t.Setenv("MIGRATE_ON_START", "true")

	cfg := Load()
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("bad TTL should fall back to 12h, got %s", cfg.SessionTTL)
	}
	if !cfg.MigrateOnStart {
		t.Error("expected MIGRATE_ON_START to be honoured")
	}
}

func TestValidateServer(t *testing.T) {
	cfg := Config{
		JWTSecret:            "0123456789abcdef0123456789abcdef",
		OperatorPasswordHash: "$2a$10$abcdefghijklmnopqrstuu",
	}
	if err := cfg.ValidateServer(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	cfg.OperatorPasswordHash = "plaintext"
	if err := cfg.ValidateServer(); err == nil {
		t.Fatal("expected plaintext password to be rejected")
	}
}

func TestLoadSecureCookies(t *testing.T) {
	t.Setenv("COOKIE_SECURE", "")
	if !Load().SecureCookies {
		t.Error("secure cookies should default on")
	}
	t.Setenv("COOKIE_SECURE", "false")
	if Load().SecureCookies {
		t.Error("expected COOKIE_SECURE=false to disable secure cookies")
	}
}
