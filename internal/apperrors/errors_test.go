package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{Validation("bad", nil), http.StatusBadRequest},
		{Unauthorized("no"), http.StatusUnauthorized},
		{Conflict("dup"), http.StatusConflict},
		{NotFound("gone"), http.StatusNotFound},
		{TooManyRequests("slow down"), http.StatusTooManyRequests},
		{InvalidOrExpiredToken(), http.StatusBadRequest},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
		{New("SOMETHING_ELSE", "x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status())
		})
	}
}

func TestKindOfAndIs(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", NotFound("task not found"))

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindConflict))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("driver exploded")
	err := Internal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error: driver exploded", err.Error())
}

func performRespond(err error, expose bool) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Respond(c, err, expose)
	return w
}

func TestRespond_HidesCauseOutsideDevelopment(t *testing.T) {
	w := performRespond(Internal(errors.New("pq: relation does not exist")), false)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.Equal(t, "Internal server error", body["message"])
}

func TestRespond_ExposesCauseInDevelopment(t *testing.T) {
	w := performRespond(Internal(errors.New("pq: relation does not exist")), true)
	assert.Contains(t, w.Body.String(), "pq: relation does not exist")
}

func TestRespond_ForeignErrorBecomesInternal(t *testing.T) {
	w := performRespond(errors.New("unexpected"), false)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "unexpected")
}

func TestRespond_IncludesDetails(t *testing.T) {
	w := performRespond(Validation("Password does not meet requirements", []string{"uppercase letter"}), false)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Code    string   `json:"code"`
		Details []string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Equal(t, []string{"uppercase letter"}, body.Details)
}
