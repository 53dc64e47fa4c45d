package handlers

import (
	"net/http"

	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/services"
	"task-tracker/backend/internal/session"

	"github.com/gin-gonic/gin"
)

type LogoutHandler struct {
	auth   services.AuthService
	cookie *session.Cookie
}

func NewLogoutHandler(auth services.AuthService, cookie *session.Cookie) *LogoutHandler {
	return &LogoutHandler{auth: auth, cookie: cookie}
}

// Logout always succeeds: the presented session, if any, is revoked and the
// cookie is cleared with the attributes it was issued with.
func (h *LogoutHandler) Logout(c *gin.Context) {
	if raw := middleware.SessionToken(c, h.cookie); raw != "" {
		h.auth.Logout(c.Request.Context(), raw)
	}
	h.cookie.Clear(c)

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
