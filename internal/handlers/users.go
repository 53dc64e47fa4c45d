package handlers

import (
	"net/http"

	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// EditProfileRequest lists the only profile fields a user may change.
type EditProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Age       *int    `json:"age"`
	Email     *string `json:"email"`
}

type UserHandler struct {
	responder
	auth services.AuthService
}

func NewUserHandler(auth services.AuthService, exposeCause bool) *UserHandler {
	return &UserHandler{responder: responder{exposeCause: exposeCause}, auth: auth}
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	user, err := h.auth.Profile(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) EditMe(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req EditProfileRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       req.Age,
		Email:     req.Email,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
