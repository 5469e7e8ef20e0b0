package apperror

import (
	"fmt"
	"net/http"
)

// Machine-readable error codes carried in the API's error envelope.
const (
	CodeBadRequest   = "BAD_REQUEST_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"
	CodeRateLimited  = "RATE_LIMIT_EXCEEDED"
)

// AppError is a structured error that maps to an HTTP response and the
// {code, description} error envelope.
type AppError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	HTTPStatus  int    `json:"-"`
	Err         error  `json:"-"` // wrapped internal error, never exposed
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Description)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, description string, httpStatus int) *AppError {
	return &AppError{Code: code, Description: description, HTTPStatus: httpStatus}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, description string, httpStatus int, err error) *AppError {
	return &AppError{Code: code, Description: description, HTTPStatus: httpStatus, Err: err}
}

// BadRequest returns a 400 BAD_REQUEST_ERROR with the given description.
func BadRequest(description string) *AppError {
	return New(CodeBadRequest, description, http.StatusBadRequest)
}

// Unauthorized returns a 401 UNAUTHORIZED with the given description.
func Unauthorized(description string) *AppError {
	return New(CodeUnauthorized, description, http.StatusUnauthorized)
}

// NotFound returns a 404 NOT_FOUND for the named entity.
func NotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// Internal wraps an unclassified error as a 500 INTERNAL_ERROR.
func Internal(err error) *AppError {
	return Wrap(CodeInternal, "internal server error", http.StatusInternalServerError, err)
}

// RateLimitExceeded returns a 429 RATE_LIMIT_EXCEEDED. The code and status
// sit outside the documented {BAD_REQUEST_ERROR, UNAUTHORIZED, NOT_FOUND,
// INTERNAL_ERROR} / {400,401,404,500} error envelope enum — rate limiting
// is ambient infrastructure, not a domain error, and 429 is its own
// well-known status rather than a misuse of INTERNAL_ERROR.
func RateLimitExceeded() *AppError {
	return New(CodeRateLimited, "rate limit exceeded", http.StatusTooManyRequests)
}
