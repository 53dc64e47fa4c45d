package services

import (
	"errors"
	"testing"

	"task-tracker/backend/internal/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestPasswordPolicyViolations(t *testing.T) {
	tests := []struct {
		password string
		missing  []string
	}{
		{"Abcdef1!", nil},
		{"alllower1!", []string{"uppercase letter"}},
		{"Abcdefgh!", []string{"digit"}},
		{"Abcdefg1", []string{"symbol"}},
		{"Ab1!", []string{"at least 8 characters"}},
		{"", []string{"at least 8 characters", "uppercase letter", "digit", "symbol"}},
		{"Pässwörd1?", nil},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.missing, passwordPolicyViolations(tt.password))
		})
	}
}

func TestCheckNewPassword(t *testing.T) {
	assert.NoError(t, checkNewPassword("Abcdef1!", "Abcdef1!"))

	err := checkNewPassword("Abcdef1!", "abcdef1!")
	var appErr *apperrors.Error
	if assert.True(t, errors.As(err, &appErr)) {
		assert.Equal(t, apperrors.KindValidation, appErr.Kind)
		assert.Equal(t, "Passwords do not match", appErr.Message)
	}

	err = checkNewPassword("short", "short")
	if assert.True(t, errors.As(err, &appErr)) {
		assert.Equal(t, "Password does not meet requirements", appErr.Message)
		assert.Contains(t, appErr.Details, "at least 8 characters")
	}
}
