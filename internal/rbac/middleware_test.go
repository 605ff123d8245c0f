package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"todo-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func withPrincipal(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role != "" {
			ctx := auth.WithPrincipal(c.Request.Context(), auth.Principal{UserID: 1, Email: "a@example.com", Role: role})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func serve(t *testing.T, role string, mw gin.HandlerFunc) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", withPrincipal(role), mw, func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	if code := serve(t, RoleAdmin, RequireAdmin()); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAdmin_ForbidsUser(t *testing.T) {
	if code := serve(t, RoleUser, RequireAdmin()); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_MissingPrincipal(t *testing.T) {
	if code := serve(t, "", RequireAnyRole(RoleUser, RoleAdmin)); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestRequireAnyRole_IgnoresLaterMutation(t *testing.T) {
	roles := []string{RoleAdmin}
	mw := RequireAnyRole(roles...)
	roles[0] = RoleUser
	if code := serve(t, RoleUser, mw); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}
