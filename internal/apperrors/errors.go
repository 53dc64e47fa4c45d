package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation            Kind = "VALIDATION_ERROR"
	KindUnauthorized          Kind = "UNAUTHORIZED"
	KindConflict              Kind = "CONFLICT"
	KindNotFound              Kind = "NOT_FOUND"
	KindTooManyRequests       Kind = "TOO_MANY_REQUESTS"
	KindInvalidOrExpiredToken Kind = "INVALID_OR_EXPIRED_TOKEN"
	KindInternal              Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindValidation:            http.StatusBadRequest,
	KindUnauthorized:          http.StatusUnauthorized,
	KindConflict:              http.StatusConflict,
	KindNotFound:              http.StatusNotFound,
	KindTooManyRequests:       http.StatusTooManyRequests,
	KindInvalidOrExpiredToken: http.StatusBadRequest,
	KindInternal:              http.StatusInternalServerError,
}

type Error struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Status is the HTTP status code for the error's kind.
func (e *Error) Status() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string, details any) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func TooManyRequests(message string) *Error {
	return New(KindTooManyRequests, message)
}

// InvalidOrExpiredToken covers a reset token that was never issued, does not
// match, or has expired.
func InvalidOrExpiredToken() *Error {
	return New(KindInvalidOrExpiredToken, "Reset token is invalid or has expired")
}

func Internal(err error) *Error {
	return Wrap(KindInternal, "Internal server error", err)
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

type response struct {
	Code    Kind   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

// Respond writes err as JSON and aborts the gin chain. Errors that are not
// *Error become Internal. The wrapped cause is only exposed when
// exposeCause is set.
func Respond(c *gin.Context, err error, exposeCause bool) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Internal(err)
	}

	body := response{
		Code:    appErr.Kind,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if exposeCause && appErr.Err != nil {
		body.Cause = appErr.Err.Error()
	}

	c.AbortWithStatusJSON(appErr.Status(), body)
}
