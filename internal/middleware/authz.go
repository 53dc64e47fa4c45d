package middleware

import (
	"context"
	"strings"

	"task-tracker/backend/internal/apperrors"
	"task-tracker/backend/internal/security"
	"task-tracker/backend/internal/session"

	"github.com/gin-gonic/gin"
)

// Context keys set by RequireSession.
const (
	UserIDKey    = "user_id"
	SessionIDKey = "session_id"
)

type SessionVerifier interface {
	VerifySession(ctx context.Context, rawToken string) (*security.Claims, error)
}

// SessionToken returns the raw session token from the cookie, falling back
// to a Bearer Authorization header.
func SessionToken(c *gin.Context, ck *session.Cookie) string {
	if value, ok := ck.Read(c); ok {
		return value
	}

	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func RequireSession(verifier SessionVerifier, ck *session.Cookie, exposeCause bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := SessionToken(c, ck)
		if raw == "" {
			apperrors.Respond(c, apperrors.Unauthorized("Authentication required"), exposeCause)
			return
		}

		claims, err := verifier.VerifySession(c.Request.Context(), raw)
		if err != nil {
			apperrors.Respond(c, err, exposeCause)
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(SessionIDKey, claims.ID)
		c.Next()
	}
}

// UserID returns the subject stored by RequireSession.
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(UserIDKey)
	return id, id != ""
}
