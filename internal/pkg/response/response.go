// internal/pkg/response/response.go
package response

import (
	"errors"
	"net/http"
	"time"

	xerrors "helloaca-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the standard error envelope returned by every endpoint.
type ErrorBody struct {
	Error     string      `json:"error"`
	Code      string      `json:"code"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// JSON sends a successful response.
func JSON(c *gin.Context, status int, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, data)
}

// Error sends a standardized error response and aborts the chain.
func Error(c *gin.Context, status int, code, message string, details ...interface{}) {
	c.Abort()

	body := ErrorBody{
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if len(details) > 0 && details[0] != nil {
		body.Details = details[0]
	}

	c.JSON(status, body)
}

// FromError converts a service error into the envelope. Known kinds keep
// their status and code; anything unrecognized is flattened to a generic
// internal error so internals are never leaked to clients.
func FromError(c *gin.Context, err error) {
	if apiErr, ok := xerrors.AsAPIError(err); ok {
		Error(c, apiErr.Status, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, xerrors.ErrUnauthorized):
		Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	case errors.Is(err, xerrors.ErrForbidden):
		Error(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
	case errors.Is(err, xerrors.ErrQuotaExceeded):
		Error(c, http.StatusForbidden, "SUBSCRIPTION_LIMIT_EXCEEDED", err.Error())
	case errors.Is(err, xerrors.ErrRateLimited):
		Error(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "too many requests")
	case errors.Is(err, xerrors.ErrConflict), errors.Is(err, xerrors.ErrDuplicateEntry):
		Error(c, http.StatusConflict, "CONFLICT", "resource conflict")
	case errors.Is(err, xerrors.ErrInvalidInput), errors.Is(err, xerrors.ErrBadRequest):
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string, details interface{}) {
	Error(c, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// NotFound sends a 404 Not Found response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, "NOT_FOUND", message)
}
