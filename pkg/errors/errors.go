package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every AppError wraps exactly one of these so callers can
// classify failures with errors.Is regardless of the reason code.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication failed")
	ErrSession        = errors.New("invalid session")
	ErrNotFound       = errors.New("resource not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrInternal       = errors.New("internal error")
)

// Reason codes returned to clients alongside the message.
const (
	CodeUsernameRequired = "USERNAME_REQUIRED"
	CodeUsernameTooLong  = "USERNAME_TOO_LONG"
	CodeFullNameRequired = "FULLNAME_REQUIRED"
	CodeFullNameTooLong  = "FULLNAME_TOO_LONG"
	CodeEmailRequired    = "EMAIL_REQUIRED"
	CodePasswordTooShort = "PASSWORD_TOO_SHORT"
	CodePasswordTooLong  = "PASSWORD_TOO_LONG"
	CodeUsernameTaken    = "USERNAME_TAKEN"
	CodeEmailTaken       = "EMAIL_TAKEN"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeWrongPassword    = "WRONG_PASSWORD"
	CodeMissingToken     = "MISSING_TOKEN"
	CodeInvalidSession   = "INVALID_SESSION"
	CodeTooManyAttempts  = "TOO_MANY_ATTEMPTS"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodeInternal         = "INTERNAL_ERROR"
)

// AppError is a classified, user-safe application error.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"msg"`
	Status  int    `json:"-"`
	Kind    error  `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newAppError(kind error, status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Kind: kind}
}

// Validation creates a 400 error for malformed input.
func Validation(code, message string) *AppError {
	return newAppError(ErrValidation, http.StatusBadRequest, code, message)
}

// Conflict creates a 409 error, e.g. a username that is already taken.
func Conflict(code, message string) *AppError {
	return newAppError(ErrConflict, http.StatusConflict, code, message)
}

// Authentication creates a 401 error for rejected credentials.
func Authentication(code, message string) *AppError {
	return newAppError(ErrAuthentication, http.StatusUnauthorized, code, message)
}

// Session creates a 401 error for a missing or unusable refresh session.
func Session(code, message string) *AppError {
	return newAppError(ErrSession, http.StatusUnauthorized, code, message)
}

// NotFound creates a 404 error.
func NotFound(code, message string) *AppError {
	return newAppError(ErrNotFound, http.StatusNotFound, code, message)
}

// RateLimited creates a 429 error.
func RateLimited(message string) *AppError {
	return newAppError(ErrRateLimited, http.StatusTooManyRequests, CodeTooManyAttempts, message)
}

// Internal creates a 500 error. The cause is kept for logging only and is
// never part of the client-facing message.
func Internal(err error) *AppError {
	e := newAppError(ErrInternal, http.StatusInternalServerError, CodeInternal, "an internal error occurred")
	e.Err = err
	return e
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// KindOf returns the kind sentinel for err, or ErrInternal when err is not
// classified.
func KindOf(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != nil {
		return appErr.Kind
	}
	for _, kind := range []error{ErrValidation, ErrConflict, ErrAuthentication, ErrSession, ErrNotFound, ErrRateLimited} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch KindOf(err) {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrConflict:
		return http.StatusConflict
	case ErrAuthentication, ErrSession:
		return http.StatusUnauthorized
	case ErrNotFound:
		return http.StatusNotFound
	case ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
