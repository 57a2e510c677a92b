// Package autherr defines the error kinds surfaced by the account service and
// the HTTP status each maps to.
package autherr

import (
	"errors"
	"net/http"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a client-facing failure with an HTTP status.
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors of the same code so that copies carrying field details
// still satisfy errors.Is against the sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func newError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

var (
	ErrValidation            = newError(http.StatusBadRequest, "validation_error", "validation failed")
	ErrDuplicateEmail        = newError(http.StatusBadRequest, "duplicate_email", "an account with this email already exists")
	ErrInvalidCredentials    = newError(http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	ErrAccountLocked         = newError(http.StatusLocked, "account_locked", "account is temporarily locked due to too many failed login attempts, try again later")
	ErrEmailNotVerified      = newError(http.StatusUnauthorized, "email_not_verified", "please verify your email before logging in")
	ErrAccountDeactivated    = newError(http.StatusUnauthorized, "account_deactivated", "account has been deactivated")
	ErrTokenExpired          = newError(http.StatusUnauthorized, "token_expired", "token has expired, please log in again")
	ErrTokenInvalid          = newError(http.StatusUnauthorized, "token_invalid", "invalid token, please log in again")
	ErrTokenRevoked          = newError(http.StatusUnauthorized, "token_revoked", "token has been revoked, please log in again")
	ErrInvalidOrExpiredToken = newError(http.StatusBadRequest, "invalid_or_expired_token", "token is invalid or has expired")
	ErrNotFound              = newError(http.StatusNotFound, "not_found", "no account found with that email")
	ErrDelivery              = newError(http.StatusInternalServerError, "delivery_error", "there was an error sending the email, please try again later")
	ErrUnauthorized          = newError(http.StatusUnauthorized, "unauthorized", "you are not logged in, please log in to get access")
	ErrAccountNotFound       = newError(http.StatusUnauthorized, "account_not_found", "the account belonging to this token no longer exists")
	ErrForbidden             = newError(http.StatusForbidden, "forbidden", "you do not have permission to perform this action")
	ErrAlreadyVerified       = newError(http.StatusBadRequest, "already_verified", "email is already verified")
	ErrIncorrectPassword     = newError(http.StatusUnauthorized, "incorrect_password", "current password is incorrect")
	ErrSamePassword          = newError(http.StatusBadRequest, "same_password", "new password must differ from the current password")
	ErrTooManyRequests       = newError(http.StatusTooManyRequests, "too_many_requests", "too many requests, please try again later")
)

// Validation returns a ValidationError carrying per-field issues.
func Validation(fields []FieldError) *Error {
	return &Error{
		Status:  ErrValidation.Status,
		Code:    ErrValidation.Code,
		Message: ErrValidation.Message,
		Fields:  fields,
	}
}

// StatusOf returns the HTTP status for err, or 500 when err is not an *Error.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
