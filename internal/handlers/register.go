package handlers

import (
	"net/http"

	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type RegistrationRequest struct {
	FirstName       string `json:"firstName" binding:"required"`
	LastName        string `json:"lastName" binding:"required"`
	Age             int    `json:"age" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type RegisterHandler struct {
	responder
	auth services.AuthService
}

func NewRegisterHandler(auth services.AuthService, exposeCause bool) *RegisterHandler {
	return &RegisterHandler{responder: responder{exposeCause: exposeCause}, auth: auth}
}

// Registration creates an account. No session is issued; the client logs in
// separately.
func (h *RegisterHandler) Registration(c *gin.Context) {
	var req RegistrationRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Age:             req.Age,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID})
}
