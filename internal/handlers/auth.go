package handlers

import (
	"net/http"

	"task-tracker/backend/internal/services"
	"task-tracker/backend/internal/session"

	"github.com/gin-gonic/gin"
)

const forgotPasswordAccepted = "If that email is registered, you will receive a password reset link shortly"

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email" binding:"required"`
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type AuthHandler struct {
	responder
	auth   services.AuthService
	cookie *session.Cookie
}

func NewAuthHandler(auth services.AuthService, cookie *session.Cookie, exposeCause bool) *AuthHandler {
	return &AuthHandler{responder: responder{exposeCause: exposeCause}, auth: auth, cookie: cookie}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.auth.Login(c.Request.Context(), services.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.cookie.Set(c, res.Session.Value, res.Session.ExpiresAt)
	c.JSON(http.StatusOK, LoginResponse{ID: res.User.ID, Email: res.User.Email})
}

// ForgotPassword answers the same way whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": forgotPasswordAccepted})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.auth.ResetPassword(c.Request.Context(), services.ResetPasswordInput{
		Email:           req.Email,
		Token:           req.Token,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}
