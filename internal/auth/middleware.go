package auth

import (
	"errors"
	"strings"

	"todo-platform/internal/apperr"
	"todo-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// RequireAccessToken verifies an access token and injects the principal into request context.
// It does not perform RBAC checks; those belong to internal/rbac.
func RequireAccessToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			apperr.Abort(c, apperr.New(apperr.KindUnauthenticated, "missing_token", "missing bearer token"))
			return
		}
		tok := strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))

		p, err := m.Validate(tok, TokenTypeAccess)
		if err != nil {
			reason := reasonOf(err)
			tokenValidations.WithLabelValues(string(TokenTypeAccess), reason).Inc()
			logger.FromGin(c).Debug("access token rejected", "reason", reason, "token", TokenPrefix(tok))
			apperr.Abort(c, TokenAppError(err))
			return
		}
		tokenValidations.WithLabelValues(string(TokenTypeAccess), "ok").Inc()

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Set("user_id", p.UserID)
		c.Set("role", p.Role)

		c.Next()
	}
}

// TokenAppError converts a token failure into the uniform 401 response error.
func TokenAppError(err error) *apperr.Error {
	var te *TokenError
	if errors.As(err, &te) {
		return apperr.New(apperr.KindUnauthenticated, string(te.Reason), tokenMessage(te.Reason))
	}
	return apperr.New(apperr.KindUnauthenticated, string(ReasonMalformed), tokenMessage(ReasonMalformed))
}

func tokenMessage(r Reason) string {
	switch r {
	case ReasonExpired:
		return "token has expired"
	case ReasonWrongScope:
		return "token is not valid for this operation"
	case ReasonRevoked:
		return "token has been revoked"
	case ReasonMalformed:
		return "token is invalid"
	}
	return "token is invalid"
}
