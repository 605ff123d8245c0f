package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:        AppConfig{Env: "local", Port: 8080},
		DB:         DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "todo"},
		Redis:      RedisConfig{Host: "localhost", Port: 6379},
		Auth:       AuthConfig{AccessSecret: "access-secret", RefreshSecret: "refresh-secret"},
		Encryption: EncryptionConfig{Key: "k", Salt: "s"},
		S3:         S3Config{Bucket: "avatars"},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "todo"
	c.Auth.JWTAudience = "todo-api"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "DB_SSLMODE") {
		t.Fatalf("expected error for production without DB_SSLMODE, got %v", err)
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl default %v", c.Auth.AccessTokenTTL)
	}
	if c.RateLimit.Backend != RateLimitBackendRedis {
		t.Fatalf("expected redis backend default, got %q", c.RateLimit.Backend)
	}
	if c.RateLimit.StoreTimeout <= 0 {
		t.Fatalf("expected store timeout default")
	}
	if c.Auth.StoreTimeout != 2*time.Second {
		t.Fatalf("unexpected auth store timeout default %v", c.Auth.StoreTimeout)
	}
}

func TestValidate_RejectsSharedSecret(t *testing.T) {
	c := validConfig()
	c.Auth.RefreshSecret = c.Auth.AccessSecret
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("expected distinct secret error, got %v", err)
	}
}

func TestValidate_MemoryBackendNotAllowedInProduction(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	c.Auth.JWTIssuer = "todo"
	c.Auth.JWTAudience = "todo-api"
	c.RateLimit.Backend = RateLimitBackendMemory
	if err := c.Validate(); err == nil {
		t.Fatalf("expected memory backend rejection in production")
	}
}

func TestLoad_ReadsEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_NAME", "todo")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_ACCESS_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "b")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("ENCRYPTION_KEY", "k")
	t.Setenv("ENCRYPTION_SALT", "s")
	t.Setenv("RATE_LIMIT_TRUST_PROXY", "true")
	t.Setenv("S3_BUCKET", "avatars")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.HTTPAddr() != ":9090" || c.RedisAddr() != "cache:6379" {
		t.Fatalf("unexpected addrs %q %q", c.HTTPAddr(), c.RedisAddr())
	}
	if c.Auth.AccessTokenTTL != 5*time.Minute || !c.RateLimit.TrustProxy {
		t.Fatalf("unexpected parsed values: %+v", c)
	}
}

func TestLoad_RejectsBadDuration(t *testing.T) {
	t.Setenv("APP_PORT", "1")
	t.Setenv("DB_PORT", "1")
	t.Setenv("REDIS_PORT", "1")
	t.Setenv("JWT_ACCESS_TTL", "soon")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_ACCESS_TTL") {
		t.Fatalf("expected duration parse error, got %v", err)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.example.com , ,https://b.example.com")
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Fatalf("unexpected list %q", got)
	}
	if splitList("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}
