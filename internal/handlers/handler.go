package handlers

import (
	"task-tracker/backend/internal/apperrors"
	"task-tracker/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// responder writes service errors in the shared error shape.
type responder struct {
	exposeCause bool
}

func (r responder) fail(c *gin.Context, err error) {
	apperrors.Respond(c, err, r.exposeCause)
}

// bind decodes the JSON body into dst and reports malformed bodies as
// Validation errors.
func (r responder) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		r.fail(c, apperrors.Validation("Invalid request body", err.Error()))
		return false
	}
	return true
}

func (r responder) currentUser(c *gin.Context) (string, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		r.fail(c, apperrors.Unauthorized("Authentication required"))
	}
	return id, ok
}
