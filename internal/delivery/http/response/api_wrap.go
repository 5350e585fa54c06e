package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/LavaJover/shvark-payu-service/internal/delivery/http/middleware"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: c.GetString(middleware.TraceIDKey),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: c.GetString(middleware.TraceIDKey),
	})
}

// HandleServiceError maps domain errors to HTTP statuses. Anything not
// recognised is logged and reported as an internal error without detail.
func HandleServiceError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrRefundNotFound),
		errors.Is(err, domain.ErrWebhookNotFound):
		RespondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateTransaction):
		RespondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		RespondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrOverRefund),
		errors.Is(err, domain.ErrNotRefundable):
		RespondError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrSignatureMismatch):
		RespondError(c, http.StatusForbidden, "signature mismatch")
	case errors.Is(err, domain.ErrInvalidParams),
		errors.Is(err, domain.ErrInvalidAmount):
		RespondError(c, http.StatusBadRequest, err.Error())
	default:
		slog.Error("unhandled service error", "error", err, "trace_id", c.GetString(middleware.TraceIDKey))
		RespondError(c, http.StatusInternalServerError, "internal server error")
	}
}
