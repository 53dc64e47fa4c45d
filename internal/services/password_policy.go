package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"task-tracker/backend/internal/apperrors"
)

const (
	MinPasswordLength = 8
	PasswordSymbols   = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

// checkNewPassword applies the two password gates in order: confirmation
// must match, then the complexity rules must hold.
func checkNewPassword(password, confirm string) error {
	if password != confirm {
		return apperrors.Validation("Passwords do not match", nil)
	}
	if missing := passwordPolicyViolations(password); len(missing) > 0 {
		return apperrors.Validation("Password does not meet requirements", missing)
	}
	return nil
}

func passwordPolicyViolations(password string) []string {
	var hasUpper, hasDigit, hasSymbol bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsDigit(char):
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, char):
			hasSymbol = true
		}
	}

	var missing []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		missing = append(missing, "at least 8 characters")
	}
	if !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if !hasDigit {
		missing = append(missing, "digit")
	}
	if !hasSymbol {
		missing = append(missing, "symbol")
	}
	return missing
}
