package handlers

import (
	"context"

	"github.com/LavaJover/shvark-payu-service/internal/delivery/http/response"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
)

type CallLogReader interface {
	Recent(ctx context.Context, command string, limit int) ([]logger.GatewayCallLog, error)
}

// WithCallLog exposes the gateway call audit log under /api/v1/gateway/calls.
func (h *PaymentHandler) WithCallLog(calls CallLogReader) *PaymentHandler {
	h.calls = calls
	return h
}

func (h *PaymentHandler) GatewayCalls(c *gin.Context) {
	rows, err := h.calls.Recent(c.Request.Context(), c.Query("command"), queryInt(c, "limit"))
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	response.RespondSuccess(c, gin.H{"calls": rows}, "")
}
