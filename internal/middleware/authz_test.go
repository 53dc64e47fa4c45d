package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"task-tracker/backend/internal/apperrors"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/security"
	"task-tracker/backend/internal/session"

	"github.com/gin-gonic/gin"
)

type tokenVerifier struct {
	tokens   *security.TokenService
	denylist security.Denylist
}

func (v tokenVerifier) VerifySession(ctx context.Context, raw string) (*security.Claims, error) {
	claims, err := v.tokens.Verify(raw, security.PurposeSession)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired session")
	}
	if revoked, _ := v.denylist.IsRevoked(ctx, claims.ID); revoked {
		return nil, apperrors.Unauthorized("Invalid or expired session")
	}
	return claims, nil
}

func setupSessionRouter(t *testing.T) (*gin.Engine, *security.TokenService, *security.MemoryDenylist, *session.Cookie) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := security.NewTokenService("test-secret", "task-tracker")
	denylist := security.NewMemoryDenylist()
	ck := session.NewCookie("session_token", "", false)

	router := gin.New()
	router.Use(middleware.RequireSession(tokenVerifier{tokens: tokens, denylist: denylist}, ck, false))
	router.GET("/protected", func(c *gin.Context) {
		id, _ := middleware.UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return router, tokens, denylist, ck
}

func TestRequireSession_NoToken(t *testing.T) {
	router, _, _, _ := setupSessionRouter(t)

	req, _ := http.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestRequireSession_InvalidToken(t *testing.T) {
	router, _, _, ck := setupSessionRouter(t)

	req, _ := http.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: ck.Name, Value: "invalid_token"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestRequireSession_ValidCookie(t *testing.T) {
	router, tokens, _, ck := setupSessionRouter(t)

	tok, err := tokens.Issue("user-123", security.PurposeSession, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	req, _ := http.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: ck.Name, Value: tok.Value})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if w.Body.String() != `{"user_id":"user-123"}` {
		t.Errorf("Unexpected body %s", w.Body.String())
	}
}

func TestRequireSession_BearerFallback(t *testing.T) {
	router, tokens, _, _ := setupSessionRouter(t)

	tok, _ := tokens.Issue("user-123", security.PurposeSession, time.Hour)

	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRequireSession_ResetTokenRejected(t *testing.T) {
	router, tokens, _, ck := setupSessionRouter(t)

	tok, _ := tokens.Issue("user-123", security.PurposePasswordReset, time.Hour)

	req, _ := http.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: ck.Name, Value: tok.Value})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestRequireSession_RevokedToken(t *testing.T) {
	router, tokens, denylist, ck := setupSessionRouter(t)

	tok, _ := tokens.Issue("user-123", security.PurposeSession, time.Hour)
	if err := denylist.Revoke(context.Background(), tok.ID, tok.ExpiresAt); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	req, _ := http.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: ck.Name, Value: tok.Value})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}
