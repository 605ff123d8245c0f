package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todo-platform/internal/audit"
	"todo-platform/internal/auth"
	"todo-platform/internal/config"
	"todo-platform/internal/cryptox"
	"todo-platform/internal/ratelimit"
	"todo-platform/internal/todos"
	"todo-platform/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUploader struct {
	calls int
}

func (f *fakeUploader) Upload(_ context.Context, userID int64, data []byte) (string, error) {
	f.calls++
	if len(data) == 0 {
		return "", errors.New("unexpected empty upload")
	}
	return "https://img.example.com/users/profile.png", nil
}

type testServer struct {
	router *gin.Engine
	users  *users.MemoryRepo
	audit  *audit.MemoryRepo
	images *fakeUploader
	hasher *auth.PasswordHasher
}

func newTestServer(t *testing.T, store ratelimit.Store) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewManager(config.AuthConfig{
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	require.NoError(t, err)
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	enc, err := cryptox.NewEncryptor("key", "salt")
	require.NoError(t, err)

	userRepo := users.NewMemoryRepo()
	auditRepo := audit.NewMemoryRepo()
	auditSvc := audit.NewService(auditRepo)
	authSvc, err := auth.NewService(auth.ServiceDeps{
		Users:     userRepo,
		Tokens:    tokens,
		Hasher:    hasher,
		Encryptor: enc,
		Audit:     auditSvc,
	})
	require.NoError(t, err)

	policies, err := ratelimit.NewPolicies(ratelimit.DefaultPolicies()...)
	require.NoError(t, err)

	images := &fakeUploader{}
	r := NewRouter(RouterDeps{
		Handlers: Handlers{
			Auth:   authSvc,
			Tokens: tokens,
			Users:  userRepo,
			Todos:  todos.NewService(todos.NewMemoryRepo()),
			Images: images,
			Audit:  auditSvc,
		},
		Limiter:  ratelimit.NewLimiter(store),
		Policies: policies,
		Health: map[string]HealthFunc{
			"db": func(context.Context) error { return nil },
		},
	})
	return testServer{router: r, users: userRepo, audit: auditRepo, images: images, hasher: hasher}
}

type apiResponse struct {
	StatusCode int             `json:"status_code"`
	Reason     string          `json:"reason"`
	Data       json.RawMessage `json:"data"`
	Fields     []struct {
		Field string `json:"field"`
	} `json:"fields"`
}

func (s testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out apiResponse
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func (s testServer) registerAndLogin(t *testing.T, email string) tokenResponse {
	t.Helper()
	w, _ := s.do(t, http.MethodPost, "/auth/register", "", gin.H{"name": "Tester", "email": email, "password": "pass1234"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return s.login(t, email, "pass1234")
}

func (s testServer) login(t *testing.T, email, password string) tokenResponse {
	t.Helper()
	w, res := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok tokenResponse
	require.NoError(t, json.Unmarshal(res.Data, &tok))
	return tok
}

func TestLoginLogoutThenRefreshFails(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryStore())
	tok := s.registerAndLogin(t, "ana@example.com")
	require.NotEmpty(t, tok.AccessToken)
	require.NotEmpty(t, tok.RefreshToken)
	require.Equal(t, "Bearer", tok.TokenType)

	w, _ := s.do(t, http.MethodPost, "/auth/logout", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, res := s.do(t, http.MethodPost, "/auth/refresh-token", "", gin.H{"refresh_token": tok.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "revoked", res.Reason)
}

func TestRefreshRotatesAndRejectsOldToken(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryStore())
	tok := s.registerAndLogin(t, "bo@example.com")

	w, res := s.do(t, http.MethodPost, "/auth/refresh-token", "", gin.H{"refresh_token": tok.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var next tokenResponse
	require.NoError(t, json.Unmarshal(res.Data, &next))
	require.NotEqual(t, tok.RefreshToken, next.RefreshToken)

	w, res = s.do(t, http.MethodPost, "/auth/refresh-token", "", gin.H{"refresh_token": tok.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "revoked", res.Reason)
}

func TestAccessTokenRejectedForRefresh(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryStore())
	tok := s.registerAndLogin(t, "cy@example.com")

	w, res := s.do(t, http.MethodPost, "/auth/refresh-token", "", gin.H{"refresh_token": tok.AccessToken})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "wrong-scope", res.Reason)

	w, res = s.do(t, http.MethodGet, "/users/profile", tok.RefreshToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "wrong-scope", res.Reason)
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryStore())
	s.registerAndLogin(t, "dee@example.com")

	w1, r1 := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "dee@example.com", "password": "wrong-pass"})
	w2, r2 := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "nobody@example.com", "password": "wrong-pass"})
	require.Equal(t, http.StatusUnauthorized, w1.Code)
	require.Equal(t, w1.Code, w2.Code)
	require.Equal(t, r1.Reason, r2.Reason)
}

func TestLogin_FifthAttemptIsRateLimited(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryStore())
	body := gin.H{"email": "eve@example.com", "password": "whatever"}
	for i := 0; i < 4; i++ {
		w, _ := s.do(t, http.MethodPost, "/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "4", w.Header().Get(ratelimit.HeaderLimit))
	}
	w, res := s.do(t, http.MethodPost, "/auth/login", "", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "rate_limit_exceeded", res.Reason)
	require.Equal(t, "0", w.Header().Get(ratelimit.HeaderRemaining))
	require.NotEmpty(t, w.Header().Get(ratelimit.HeaderRetryAfter))
	require.NotEmpty(t, w.Header().Get(ratelimit.HeaderReset))

	// register has its own bucket
	w, _ = s.do(t, http.MethodPost, "/auth/register", "", gin.H{"name": "Evelyn", "email": "eve@example.com", "password": "pass1234"})
	require.Equal(t, http.StatusCreated, w.Code)
}

type brokenStore struct{}

func (brokenStore) Take(context.Context, string, int, time.Duration, time.Time) (ratelimit.Take, error) {
	return ratelimit.Take{}, errors.New("connection refused")
}

func TestRateLimitStoreOutageFailsClosed(t *testing.T) {
	s := newTestServer(t, brokenStore{})
	w, res := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "a@example.com", "password": "x"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "rate_limit_unavailable", res.Reason)

	// unlimited routes are unaffected
	w, _ = s.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_ValidationAndConflict(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryStore())

	w, res := s.do(t, http.MethodPost, "/auth/register", "", gin.H{"name": "Al", "email": "not-an-email", "password": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := map[string]bool{}
	for _, f := range res.Fields {
		fields[f.Field] = true
	}
	require.True(t, fields["name"] && fields["email"] && fields["password"], "fields: %+v", res.Fields)

	body := gin.H{"name": "Frank", "email": "frank@example.com", "password": "pass1234"}
	w, _ = s.do(t, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code)
	w, res = s.do(t, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "email_taken", res.Reason)
}

func TestTodosAreOwnerScoped(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryStore())
	owner := s.registerAndLogin(t, "gil@example.com")
	other := s.registerAndLogin(t, "hal@example.com")

	w, res := s.do(t, http.MethodPost, "/todos", owner.AccessToken, gin.H{"title": "buy milk"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created todos.Todo
	require.NoError(t, json.Unmarshal(res.Data, &created))

	path := "/todos/" + jsonNumber(created.ID)
	w, _ = s.do(t, http.MethodGet, path, other.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w, res = s.do(t, http.MethodPatch, path, owner.AccessToken, gin.H{"completed": true})
	require.Equal(t, http.StatusOK, w.Code)
	var updated todos.Todo
	require.NoError(t, json.Unmarshal(res.Data, &updated))
	require.True(t, updated.Completed)
	require.Equal(t, "buy milk", updated.Title)

	w, _ = s.do(t, http.MethodPatch, path, owner.AccessToken, gin.H{"title": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, res = s.do(t, http.MethodGet, "/todos?completed=true&sort=title,asc", owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Content       []todos.Todo `json:"content"`
		TotalElements int64        `json:"total_elements"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &page))
	require.EqualValues(t, 1, page.TotalElements)

	w, _ = s.do(t, http.MethodGet, "/todos?sort=password", owner.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodDelete, path, owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, path, owner.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsers_AdminOnly(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryStore())
	user := s.registerAndLogin(t, "ivy@example.com")

	hash, err := s.hasher.Hash("adminpass")
	require.NoError(t, err)
	_, err = s.users.Create(context.Background(), users.User{Name: "Root", Email: "root@example.com", Role: users.RoleAdmin, PasswordHash: hash})
	require.NoError(t, err)
	admin := s.login(t, "root@example.com", "adminpass")

	w, _ := s.do(t, http.MethodGet, "/users", user.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodGet, "/users?limit=101", admin.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, res := s.do(t, http.MethodGet, "/users?page=1&limit=1", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Content       []userResponse `json:"content"`
		TotalElements int64          `json:"total_elements"`
		HasNext       bool           `json:"has_next"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &page))
	require.Len(t, page.Content, 1)
	require.EqualValues(t, 2, page.TotalElements)
	require.True(t, page.HasNext)
}

func TestDeleteAccount(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryStore())
	tok := s.registerAndLogin(t, "jo@example.com")

	w, _ := s.do(t, http.MethodDelete, "/users", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, res := s.do(t, http.MethodGet, "/users/profile", tok.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "user_not_found", res.Reason)
}

func TestUploadProfileImage(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryStore())
	tok := s.registerAndLogin(t, "kai@example.com")

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	w := s.upload(t, tok.AccessToken, png)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, 1, s.images.calls)

	u, err := s.users.FindByEmail(context.Background(), "kai@example.com")
	require.NoError(t, err)
	require.Equal(t, "https://img.example.com/users/profile.png", u.ProfileImageURL)

	w = s.upload(t, tok.AccessToken, png)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.upload(t, tok.AccessToken, png)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func (s testServer) upload(t *testing.T, token string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "avatar.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/profile/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryStore())
	w, res := s.do(t, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "route_not_found", res.Reason)
	require.Empty(t, w.Header().Get(ratelimit.HeaderLimit))
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestCORSPreflightExposesRateLimitHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterDeps{
		Handlers:    Handlers{Tokens: mustManager(t)},
		CORSOrigins: []string{"https://app.example.com"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func mustManager(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager(config.AuthConfig{
		AccessSecret:    "a",
		RefreshSecret:   "b",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	return m
}
