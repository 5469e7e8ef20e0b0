package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New(CodeBadRequest, "amount must be positive", http.StatusBadRequest),
			expected: "[BAD_REQUEST_ERROR] amount must be positive",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap(CodeInternal, "store error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[INTERNAL_ERROR] store error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(CodeInternal, "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New(CodeBadRequest, "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestBadRequest(t *testing.T) {
	err := BadRequest("amount must be positive")
	assert.Equal(t, CodeBadRequest, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Equal(t, "amount must be positive", err.Description)
}

func TestUnauthorized(t *testing.T) {
	err := Unauthorized("missing api key")
	assert.Equal(t, CodeUnauthorized, err.Code)
	assert.Equal(t, http.StatusUnauthorized, err.HTTPStatus)
}

func TestNotFound(t *testing.T) {
	err := NotFound("order")
	assert.Equal(t, CodeNotFound, err.Code)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Contains(t, err.Description, "order")
}

func TestInternal(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	err := Internal(inner)
	assert.Equal(t, CodeInternal, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.True(t, errors.Is(err, inner))
}
