package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// blank out anything the host environment may carry
	for _, key := range []string{"APP_ENV", "PORT", "JWT_TTL_DAYS", "QUEUE_KEY", "RATE_LIMIT", "RATE_WINDOW_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Env != "dev" {
		t.Fatalf("Env = %q, want dev", cfg.Env)
	}
	if cfg.Port != 8000 {
		t.Fatalf("Port = %d, want 8000", cfg.Port)
	}
	if cfg.JWTTTLDays != 30 {
		t.Fatalf("JWTTTLDays = %d, want 30", cfg.JWTTTLDays)
	}
	if cfg.QueueKey != "accounthub:jobs" {
		t.Fatalf("QueueKey = %q", cfg.QueueKey)
	}
	if cfg.RateLimit != 20 || cfg.RateWindow != time.Minute {
		t.Fatalf("rate defaults: limit=%d window=%v", cfg.RateLimit, cfg.RateWindow)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_SECRET", "sekrit")
	t.Setenv("JWT_TTL_DAYS", "7")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app?sslmode=disable")
	t.Setenv("RATE_LIMIT", "5")
	t.Setenv("RATE_WINDOW_SECONDS", "30")

	cfg := Load()

	if cfg.Env != "prod" {
		t.Fatalf("Env = %q, want prod", cfg.Env)
	}
	if cfg.Port != 9000 {
		t.Fatalf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.JWTSecret != "sekrit" {
		t.Fatalf("JWTSecret = %q", cfg.JWTSecret)
	}
	if cfg.DBURL != "postgres://u:p@db:5432/app?sslmode=disable" {
		t.Fatalf("DBURL = %q", cfg.DBURL)
	}
	if cfg.RateLimit != 5 || cfg.RateWindow != 30*time.Second {
		t.Fatalf("rate config: limit=%d window=%v", cfg.RateLimit, cfg.RateWindow)
	}

	if cfg.TokenTTL() != 7*24*time.Hour {
		t.Fatalf("TokenTTL = %v, want 168h", cfg.TokenTTL())
	}
}

func TestBuildDBURLFromParts(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "svc")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "accounts")
	t.Setenv("DB_SSLMODE", "require")

	got := buildDBURL()
	want := "postgres://svc:pw@db.internal:5433/accounts?sslmode=require"

	if got != want {
		t.Fatalf("buildDBURL = %q, want %q", got, want)
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")

	if got := getEnvInt("SOME_INT", 42); got != 42 {
		t.Fatalf("getEnvInt = %d, want fallback 42", got)
	}
}

func TestGetEnvListSplitsAndTrims(t *testing.T) {
	t.Setenv("ORIGINS", " https://a.example , https://b.example ,")

	got := getEnvList("ORIGINS", "")

	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("getEnvList = %v", got)
	}
}
