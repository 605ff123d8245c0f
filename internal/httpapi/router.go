package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"todo-platform/internal/apperr"
	"todo-platform/internal/audit"
	"todo-platform/internal/auth"
	"todo-platform/internal/ratelimit"
	"todo-platform/internal/rbac"
	"todo-platform/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthFunc reports whether a dependency is reachable.
type HealthFunc func(ctx context.Context) error

type RouterDeps struct {
	Handlers   Handlers
	Logger     *slog.Logger
	Limiter    *ratelimit.Limiter
	Policies   *ratelimit.Policies
	TrustProxy bool

	// CORSOrigins enables CORS when non-empty.
	CORSOrigins []string
	// Health checks run by /healthz, keyed by dependency name.
	Health map[string]HealthFunc
}

// NewRouter assembles the middleware chain and routes.
// Order: request logger, recovery, CORS, client address, rate limit, then per-group auth.
func NewRouter(d RouterDeps) *gin.Engine {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(logger.Middleware(log))
	r.Use(gin.CustomRecovery(func(c *gin.Context, rec any) {
		apperr.Abort(c, apperr.Internal(fmt.Errorf("panic: %v", rec)))
	}))
	if len(d.CORSOrigins) > 0 {
		r.Use(corsMiddleware(d.CORSOrigins))
	}
	r.Use(clientAddress(d.TrustProxy))
	if d.Limiter != nil && d.Policies != nil {
		r.Use(ratelimit.Middleware(d.Limiter, d.Policies, d.TrustProxy))
	}
	r.NoRoute(func(c *gin.Context) {
		apperr.Abort(c, apperr.New(apperr.KindNotFound, "route_not_found", "route not found"))
	})

	r.GET("/healthz", healthz(d.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := d.Handlers
	requireAuth := auth.RequireAccessToken(h.Tokens)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh-token", h.RefreshToken)
		authGroup.POST("/logout", requireAuth, h.Logout)
	}

	usersGroup := r.Group("/users", requireAuth)
	{
		usersGroup.GET("", rbac.RequireAdmin(), h.ListUsers)
		usersGroup.DELETE("", h.DeleteAccount)
		usersGroup.GET("/profile", h.GetProfile)
		usersGroup.POST("/profile/image", h.UploadProfileImage)
	}

	todosGroup := r.Group("/todos", requireAuth)
	{
		todosGroup.GET("", h.ListTodos)
		todosGroup.POST("", h.CreateTodo)
		todosGroup.GET("/:id", h.GetTodo)
		todosGroup.PATCH("/:id", h.UpdateTodo)
		todosGroup.DELETE("/:id", h.DeleteTodo)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	cfg.ExposeHeaders = []string{
		ratelimit.HeaderLimit,
		ratelimit.HeaderRemaining,
		ratelimit.HeaderReset,
		ratelimit.HeaderRetryAfter,
		"X-Request-Id",
	}
	cfg.MaxAge = 12 * time.Hour
	return cors.New(cfg)
}

// clientAddress exposes the resolved caller address to audit and the request logger.
func clientAddress(trustProxy bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := ratelimit.ClientAddress(c.Request, trustProxy)
		ctx := audit.WithClientIP(c.Request.Context(), ip)
		ctx = logger.With(ctx, logger.From(ctx).With("client_ip", ip))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func healthz(checks map[string]HealthFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		out := gin.H{}
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				logger.FromGin(c).Warn("health check failed", "dependency", name, "err", err)
				out[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			out[name] = "ok"
		}
		out["status"] = http.StatusText(status)
		c.JSON(status, out)
	}
}
