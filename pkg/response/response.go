package response

import (
	"errors"
	"net/http"
	"time"

	"paygateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrorBody is the error envelope per the API contract: non-2xx responses
// carry {"error": {"code": ..., "description": ...}}.
type ErrorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ErrorResponse wraps ErrorBody under the "error" key.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ListResponse is the envelope used by paginated list endpoints.
type ListResponse struct {
	Data   interface{} `json:"data"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// OK sends a 200 response with the resource serialized directly, no
// wrapping envelope — the API contract returns bare resource bodies.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 response with the resource serialized directly.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// List sends a 200 response wrapping items in the {data, total, limit,
// offset} list envelope.
func List(c *gin.Context, items interface{}, total int64, limit, offset int) {
	c.JSON(http.StatusOK, ListResponse{Data: items, Total: total, Limit: limit, Offset: offset})
}

// StatusEnvelope wraps the teacher's {data, request_id, timestamp} success
// shape, kept for the one unauthenticated operational endpoint that isn't
// itself a resource in the merchant-scoped API contract.
type StatusEnvelope struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// Status sends a 200 response using the StatusEnvelope shape.
func Status(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, StatusEnvelope{
		Data:      data,
		RequestID: uuid.New().String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500 INTERNAL_ERROR.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{
			Error: ErrorBody{Code: appErr.Code, Description: appErr.Description},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: ErrorBody{Code: apperror.CodeInternal, Description: "internal server error"},
	})
}
