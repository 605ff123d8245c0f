package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"todo-platform/internal/audit"
	"todo-platform/internal/auth"
	"todo-platform/internal/config"
	"todo-platform/internal/cryptox"
	"todo-platform/internal/httpapi"
	"todo-platform/internal/ratelimit"
	"todo-platform/internal/storage"
	"todo-platform/internal/todos"
	"todo-platform/internal/users"
	"todo-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const memoryJanitorInterval = time.Minute

// buildRouter wires repositories and services into the HTTP router.
// Keep this file free of business logic. Handlers delegate to internal modules.
// rdb is nil when the memory rate-limit backend is selected.
func buildRouter(ctx context.Context, cfg config.Config, db *sql.DB, rdb *redis.Client, log *slog.Logger) (*gin.Engine, error) {
	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth manager: %w", err)
	}
	hasher, err := auth.NewPasswordHasher(bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	enc, err := cryptox.NewEncryptor(cfg.Encryption.Key, cfg.Encryption.Salt)
	if err != nil {
		return nil, fmt.Errorf("encryptor: %w", err)
	}

	userRepo := users.NewPostgresRepo(db)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	authSvc, err := auth.NewService(auth.ServiceDeps{
		Users:            userRepo,
		Tokens:           tokens,
		Hasher:           hasher,
		Encryptor:        enc,
		Audit:            auditSvc,
		DefaultAvatarURL: cfg.S3.DefaultAvatarURL,
		StoreTimeout:     cfg.Auth.StoreTimeout,
	})
	if err != nil {
		return nil, err
	}

	s3Client, err := storage.NewS3Client(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}

	policies, err := ratelimit.NewPolicies(ratelimit.DefaultPolicies()...)
	if err != nil {
		return nil, err
	}

	health := map[string]httpapi.HealthFunc{
		"postgres": func(ctx context.Context) error { return utils.HealthCheck(ctx, db, 2*time.Second) },
	}

	var store ratelimit.Store
	switch cfg.RateLimit.Backend {
	case config.RateLimitBackendRedis:
		store = ratelimit.NewRedisStore(rdb, "")
		health["redis"] = func(ctx context.Context) error { return utils.PingRedis(ctx, rdb, 2*time.Second) }
	case config.RateLimitBackendMemory:
		mem := ratelimit.NewMemoryStore()
		mem.StartJanitor(ctx, memoryJanitorInterval)
		store = mem
		log.Warn("rate limiting uses in-process memory; limits are per instance")
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimit.Backend)
	}

	return httpapi.NewRouter(httpapi.RouterDeps{
		Handlers: httpapi.Handlers{
			Auth:   authSvc,
			Tokens: tokens,
			Users:  userRepo,
			Todos:  todos.NewService(todos.NewPostgresRepo(db)),
			Images: storage.NewProfileImages(s3Client, cfg.S3),
			Audit:  auditSvc,
		},
		Logger:      log,
		Limiter:     ratelimit.NewLimiter(store, ratelimit.WithStoreTimeout(cfg.RateLimit.StoreTimeout)),
		Policies:    policies,
		TrustProxy:  cfg.RateLimit.TrustProxy,
		CORSOrigins: cfg.App.CORSAllowedOrigins,
		Health:      health,
	}), nil
}
