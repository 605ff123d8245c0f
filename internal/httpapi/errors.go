package httpapi

import (
	"context"
	"errors"

	"todo-platform/internal/apperr"
	"todo-platform/internal/auth"
	"todo-platform/internal/ratelimit"
	"todo-platform/internal/storage"
	"todo-platform/internal/todos"
	"todo-platform/internal/users"

	"github.com/gin-gonic/gin"
)

// toAppError maps domain errors to the client-facing error model.
func toAppError(err error) *apperr.Error {
	var (
		ae *apperr.Error
		te *auth.TokenError
	)
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.As(err, &te):
		return auth.TokenAppError(te)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apperr.New(apperr.KindInvalidCredentials, "invalid_credentials", "invalid email or password")
	case errors.Is(err, users.ErrEmailTaken):
		return apperr.New(apperr.KindConflict, "email_taken", "email is already registered")
	case errors.Is(err, users.ErrNotFound):
		return apperr.New(apperr.KindNotFound, "user_not_found", "user not found")
	case errors.Is(err, todos.ErrNotFound):
		return apperr.New(apperr.KindNotFound, "todo_not_found", "todo not found")
	case errors.Is(err, storage.ErrEmptyImage):
		return fieldError("file", "file is empty")
	case errors.Is(err, storage.ErrImageTooLarge):
		return fieldError("file", "file exceeds 5MB")
	case errors.Is(err, storage.ErrUnsupportedImage):
		return fieldError("file", "file must be a jpeg, png, webp or gif image")
	case errors.Is(err, ratelimit.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.KindUnavailable, "service_unavailable", "service temporarily unavailable", err)
	default:
		return apperr.Internal(err)
	}
}

func fieldError(field, msg string) *apperr.Error {
	return apperr.Validation([]apperr.FieldError{{Field: field, Message: msg}})
}

func fail(c *gin.Context, err error) {
	apperr.Abort(c, toAppError(err))
}
