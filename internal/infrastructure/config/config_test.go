package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")
	unsetenv(t, "PORT", "DB_DRIVER", "TOKEN_TTL", "REDIS_ENABLED")

	cfg, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port, got %q", cfg.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h token ttl, got %v", cfg.TokenTTL)
	}
	if cfg.Redis.Enabled {
		t.Errorf("redis must be disabled by default")
	}
	if cfg.UsesMongo() {
		t.Errorf("mongo must not be selected by default")
	}
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "PORT=9090\nSTATS_CACHE_TTL=5m\nDB_DRIVER=mongo\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV", "development")
	t.Setenv("PORT", "7070")
	unsetenv(t, "STATS_CACHE_TTL", "DB_DRIVER")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("environment must win over dotenv, got %q", cfg.Port)
	}
	if cfg.Redis.StatsTTL != 5*time.Minute {
		t.Errorf("expected 5m from dotenv, got %v", cfg.Redis.StatsTTL)
	}
	if !cfg.UsesMongo() {
		t.Errorf("expected mongo driver from dotenv")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("DB_DRIVER", "oracle")

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "none.env")); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoad_RequiresSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("ENV", "production")
	unsetenv(t, "JWT_SECRET", "DB_DRIVER")

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "none.env")); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "UTC"}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC, got %v (%v)", loc, err)
	}

	cfg.Timezone = "Nowhere/Invalid"
	if _, err := cfg.Location(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

// unsetenv removes keys for the duration of the test.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}
