package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"todo-platform/internal/apperr"
	"todo-platform/internal/audit"
	"todo-platform/internal/auth"
	"todo-platform/internal/paging"
	"todo-platform/internal/storage"
	"todo-platform/internal/todos"
	"todo-platform/internal/users"
	"todo-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ImageUploader stores a profile image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, userID int64, data []byte) (string, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth   *auth.Service
	Tokens *auth.Manager
	Users  users.Repository
	Todos  *todos.Service
	Images ImageUploader
	Audit  *audit.Service
}

// bind decodes the JSON body into v and runs its validation.
func bind[T validator](c *gin.Context, v *T) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		apperr.Abort(c, apperr.Wrap(apperr.KindValidation, "invalid_json", "request body must be valid JSON", err))
		return false
	}
	if fields := (*v).Validate(); len(fields) > 0 {
		apperr.Abort(c, apperr.Validation(fields))
		return false
	}
	return true
}

func principal(c *gin.Context) (auth.Principal, bool) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		apperr.Abort(c, apperr.New(apperr.KindUnauthenticated, "missing_token", "missing bearer token"))
		return auth.Principal{}, false
	}
	return p, true
}

/* ===================== AUTH ===================== */

func (h Handlers) Register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.Auth.Register(c.Request.Context(), auth.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, toUserResponse(u))
}

func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	pair, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toTokenResponse(pair, h.Tokens.AccessTTL()))
}

func (h Handlers) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if !bind(c, &req) {
		return
	}
	pair, err := h.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toTokenResponse(pair, h.Tokens.AccessTTL()))
}

func (h Handlers) Logout(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Auth.Logout(c.Request.Context(), p.UserID); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

/* ===================== USERS ===================== */

func (h Handlers) GetProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	u, err := h.Users.FindByID(c.Request.Context(), p.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toUserResponse(u))
}

func (h Handlers) DeleteAccount(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Users.Delete(c.Request.Context(), p.UserID); err != nil {
		fail(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), audit.EventTypeAccountDelete, p.UserID, p.Email, "")
	respond(c, http.StatusOK, nil)
}

// ListUsers is admin-only; rbac runs before it.
func (h Handlers) ListUsers(c *gin.Context) {
	req, fields := parsePage(c.Query("page"), c.Query("limit"))
	if len(fields) > 0 {
		apperr.Abort(c, apperr.Validation(fields))
		return
	}
	page, err := h.Users.List(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, paging.Map(page, toUserResponse))
}

func (h Handlers) UploadProfileImage(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if h.Images == nil {
		apperr.Abort(c, apperr.New(apperr.KindUnavailable, "storage_unavailable", "image storage is not configured"))
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		apperr.Abort(c, fieldError("file", "multipart field \"file\" is required"))
		return
	}
	if fh.Size > storage.MaxImageSize {
		fail(c, storage.ErrImageTooLarge)
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxImageSize+1))
	if err != nil {
		fail(c, err)
		return
	}

	url, err := h.Images.Upload(c.Request.Context(), p.UserID, data)
	if err != nil {
		if !isImageError(err) {
			logger.FromGin(c).Error("profile image upload failed", "user_id", p.UserID, "err", err)
		}
		fail(c, err)
		return
	}
	if err := h.Users.SetProfileImage(c.Request.Context(), p.UserID, url); err != nil {
		fail(c, err)
		return
	}
	u, err := h.Users.FindByID(c.Request.Context(), p.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toUserResponse(u))
}

func isImageError(err error) bool {
	return errors.Is(err, storage.ErrEmptyImage) ||
		errors.Is(err, storage.ErrImageTooLarge) ||
		errors.Is(err, storage.ErrUnsupportedImage)
}

/* ===================== TODOS ===================== */

func (h Handlers) ListTodos(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	q, fields := parseTodoQuery(c.Query("page"), c.Query("limit"), c.Query("completed"), c.Query("sort"))
	if len(fields) > 0 {
		apperr.Abort(c, apperr.Validation(fields))
		return
	}
	page, err := h.Todos.List(c.Request.Context(), p.UserID, q)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, page)
}

func (h Handlers) GetTodo(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}
	t, err := h.Todos.Get(c.Request.Context(), p.UserID, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, t)
}

func (h Handlers) CreateTodo(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req createTodoRequest
	if !bind(c, &req) {
		return
	}
	t, err := h.Todos.Create(c.Request.Context(), p.UserID, todos.CreateInput{Title: req.Title})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, t)
}

func (h Handlers) UpdateTodo(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}
	var req updateTodoRequest
	if !bind(c, &req) {
		return
	}
	t, err := h.Todos.Update(c.Request.Context(), p.UserID, id, todos.UpdateInput{Title: req.Title, Completed: req.Completed})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, t)
}

func (h Handlers) DeleteTodo(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}
	if err := h.Todos.Delete(c.Request.Context(), p.UserID, id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apperr.Abort(c, fieldError("id", "id must be a positive integer"))
		return 0, false
	}
	return id, true
}
