package handlers

import (
	"net/http"

	"github.com/LavaJover/shvark-payu-service/internal/delivery/http/middleware"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the gateway-facing endpoints (webhook, browser
// response, checkout) and the internal JSON API.
func NewRouter(h *PaymentHandler, metrics http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	payu := r.Group("/payu")
	payu.POST("/webhook", h.Webhook)
	payu.POST("/response/success", h.GatewayResponse)
	payu.POST("/response/failure", h.GatewayResponse)

	r.GET("/checkout/:txnid", h.Checkout)

	api := r.Group("/api/v1")
	api.POST("/payments", h.InitiatePayment)
	api.GET("/payments", h.ListTransactions)
	api.GET("/payments/:txnid", h.GetTransaction)
	api.POST("/payments/:txnid/verify", h.VerifyPayment)
	api.GET("/payments/:txnid/refunds", h.RefundSummary)
	api.POST("/refunds", h.RequestRefund)
	api.GET("/refunds/:refund_id", h.GetRefund)
	api.POST("/refunds/:refund_id/cancel", h.CancelRefund)
	api.GET("/webhooks", h.ListWebhooks)
	api.POST("/webhooks/:webhook_id/reprocess", h.ReprocessWebhook)
	if h.calls != nil {
		api.GET("/gateway/calls", h.GatewayCalls)
	}

	return r
}
