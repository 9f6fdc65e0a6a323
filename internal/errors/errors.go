package errors

import (
	"errors"
	"net/http"
)

// Kind classifies a failure independently of its message text.
type Kind string

const (
	KindBadRequest          Kind = "BAD_REQUEST"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindForbidden           Kind = "FORBIDDEN"
	KindNotFound            Kind = "NOT_FOUND"
	KindConflict            Kind = "CONFLICT"
	KindDatabaseUnavailable Kind = "DATABASE_UNAVAILABLE"
	KindDatabase            Kind = "DATABASE_ERROR"
	KindInternal            Kind = "INTERNAL_ERROR"
)

var (
	// ErrAdminRequired is returned when a non-admin calls an admin-only operation.
	ErrAdminRequired = New(KindForbidden, "admin privileges required")
	// ErrMemberNotFound is returned when a member row is absent.
	ErrMemberNotFound = New(KindNotFound, "member not found")
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = New(KindUnauthorized, "invalid member ID or password")
	// ErrDatabaseUnavailable is returned when no connection could be obtained.
	ErrDatabaseUnavailable = New(KindDatabaseUnavailable, "database connection failed")
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind and message so sentinels compare after wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error carrying the underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Details    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Code:    e.Code,
		Details: e.Details,
	}
}

var statusByKind = map[Kind]int{
	KindBadRequest:          http.StatusBadRequest,
	KindUnauthorized:        http.StatusUnauthorized,
	KindForbidden:           http.StatusForbidden,
	KindNotFound:            http.StatusNotFound,
	KindConflict:            http.StatusConflict,
	KindDatabaseUnavailable: http.StatusServiceUnavailable,
	KindDatabase:            http.StatusInternalServerError,
	KindInternal:            http.StatusInternalServerError,
}

// MapErrorToHTTP maps domain errors to HTTP errors.
// Unclassified errors never leak their text to the caller.
func MapErrorToHTTP(err error) *HTTPError {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", string(KindInternal))
	}
	httpErr := NewHTTPError(statusByKind[appErr.Kind], appErr.Message, string(appErr.Kind))
	if httpErr.StatusCode == 0 {
		httpErr.StatusCode = http.StatusInternalServerError
	}
	if appErr.Err != nil {
		httpErr.Details = appErr.Err.Error()
	}
	return httpErr
}
