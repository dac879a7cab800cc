package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// token signing
	JWTSecret  string
	JWTTTLDays int

	// seeded admin account (no admin-create route exists)
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// redis (rate limiting + welcome job queue)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	QueueKey      string

	CORSAllowedOrigins []string
	OTELEndpoint       string

	// abuse limits on the public auth routes
	RateLimit  int
	RateWindow time.Duration
}

func Load() Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8000),
		DBURL: buildDBURL(),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTTTLDays: getEnvInt("JWT_TTL_DAYS", 30),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Admin"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		QueueKey:      getEnv("QUEUE_KEY", "accounthub:jobs"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_ENDPOINT", ""),

		RateLimit:  getEnvInt("RATE_LIMIT", 20),
		RateWindow: time.Duration(getEnvInt("RATE_WINDOW_SECONDS", 60)) * time.Second,
	}
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "accounthub")
	pass := getEnv("DB_PASSWORD", "accounthub")
	name := getEnv("DB_NAME", "accounthub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// TokenTTL is the lifetime of a session token and its cookie.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLDays) * 24 * time.Hour
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
