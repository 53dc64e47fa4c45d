package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"task-tracker/backend/internal/apperrors"
	"task-tracker/backend/internal/handlers"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type profileMock struct {
	MockAuthService
	edited    services.UpdateProfileInput
	updateErr error
}

func (m *profileMock) UpdateProfile(_ context.Context, id string, in services.UpdateProfileInput) (*models.User, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.edited = in
	user := &models.User{ID: id, Email: "a@b.com"}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	return user, nil
}

func setupUserRouter(svc services.AuthService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := handlers.NewUserHandler(svc, false)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.UserIDKey, userID)
		}
		c.Next()
	})
	router.GET("/users/me", h.Me)
	router.PUT("/users/edit-me", h.EditMe)
	return router
}

func TestMe_ReturnsProfileWithoutSecrets(t *testing.T) {
	router := setupUserRouter(&MockAuthService{}, "user-1")

	w := doJSON(router, "GET", "/users/me", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["id"] != "user-1" {
		t.Errorf("Unexpected body %v", body)
	}
	if _, leaked := body["passwordHash"]; leaked {
		t.Error("Password hash must not be serialized")
	}
}

func TestMe_RequiresUser(t *testing.T) {
	router := setupUserRouter(&MockAuthService{}, "")

	if w := doJSON(router, "GET", "/users/me", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestEditMe_PassesOnlyWhitelistedFields(t *testing.T) {
	mock := &profileMock{}
	router := setupUserRouter(mock, "user-1")

	w := doJSON(router, "PUT", "/users/edit-me", map[string]any{
		"firstName": "Grace",
		"password":  "Sneaky1!",
		"id":        "someone-else",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	if mock.edited.FirstName == nil || *mock.edited.FirstName != "Grace" {
		t.Errorf("Expected firstName to reach the service, got %+v", mock.edited)
	}
	if mock.edited.Email != nil || mock.edited.Age != nil || mock.edited.LastName != nil {
		t.Errorf("Unset fields must stay nil, got %+v", mock.edited)
	}
}

func TestEditMe_Conflict(t *testing.T) {
	router := setupUserRouter(&profileMock{updateErr: apperrors.Conflict("Email is already in use")}, "user-1")

	w := doJSON(router, "PUT", "/users/edit-me", map[string]any{"email": "taken@b.com"})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status %d, got %d", http.StatusConflict, w.Code)
	}
}
