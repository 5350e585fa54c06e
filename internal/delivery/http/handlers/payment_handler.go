package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/delivery/http/response"
	"github.com/LavaJover/shvark-payu-service/internal/delivery/views"
	paymentdto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/payment"
	refunddto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/refund"
	webhookdto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/webhook"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/payment"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/refund"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/webhook"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	payments payment.PaymentUsecase
	refunds  refund.RefundUsecase
	webhooks webhook.WebhookUsecase
	calls    CallLogReader
}

func NewPaymentHandler(payments payment.PaymentUsecase, refunds refund.RefundUsecase, webhooks webhook.WebhookUsecase) *PaymentHandler {
	return &PaymentHandler{payments: payments, refunds: refunds, webhooks: webhooks}
}

type initiatePaymentRequest struct {
	TxnID       string `json:"txnid"`
	Amount      string `json:"amount" binding:"required"`
	ProductInfo string `json:"productinfo"`
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	Zipcode     string `json:"zipcode"`
	UDF1        string `json:"udf1"`
	UDF2        string `json:"udf2"`
	UDF3        string `json:"udf3"`
	UDF4        string `json:"udf4"`
	UDF5        string `json:"udf5"`
	SuccessURL  string `json:"surl"`
	FailureURL  string `json:"furl"`
}

type cancelRefundRequest struct {
	Reason string `json:"reason"`
}

type refundRequest struct {
	TxnID  string `json:"txnid" binding:"required"`
	Amount string `json:"amount" binding:"required"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var r initiatePaymentRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	out, err := h.payments.InitiatePayment(c.Request.Context(), &paymentdto.InitiatePaymentInput{
		TxnID:       r.TxnID,
		Amount:      r.Amount,
		ProductInfo: r.ProductInfo,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Phone:       r.Phone,
		Address1:    r.Address1,
		Address2:    r.Address2,
		City:        r.City,
		State:       r.State,
		Country:     r.Country,
		Zipcode:     r.Zipcode,
		UDF:         [5]string{r.UDF1, r.UDF2, r.UDF3, r.UDF4, r.UDF5},
		SuccessURL:  r.SuccessURL,
		FailureURL:  r.FailureURL,
	})
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	response.RespondSuccess(c, gin.H{
		"transaction": views.Transaction(out.Transaction),
		"checkout":    out.Checkout,
	}, "payment initiated")
}

func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	tx, err := h.payments.GetTransaction(c.Request.Context(), c.Param("txnid"))
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	response.RespondSuccess(c, views.Transaction(tx), "")
}

func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	input := &paymentdto.ListTransactionsInput{
		Status:      c.Query("status"),
		PaymentMode: c.Query("payment_mode"),
		Email:       c.Query("email"),
		Page:        queryInt(c, "page"),
		Limit:       queryInt(c, "limit"),
	}
	var err error
	if input.From, err = queryTime(c, "from"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "from must be RFC3339")
		return
	}
	if input.To, err = queryTime(c, "to"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "to must be RFC3339")
		return
	}
	out, err := h.payments.ListTransactions(c.Request.Context(), input)
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	response.RespondSuccess(c, gin.H{
		"transactions": views.Transactions(out.Transactions),
		"pagination":   out.Pagination,
	}, "")
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	out, err := h.payments.VerifyPayment(c.Request.Context(), c.Param("txnid"))
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	response.RespondSuccess(c, gin.H{
		"transaction": views.Transaction(out.Transaction),
		"changed":     out.Changed,
		"gateway":     out.Gateway,
	}, "")
}

// Checkout serves the auto-submitting form that sends the browser to the
// gateway.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	page, err := h.payments.RenderCheckoutForm(c.Request.Context(), c.Param("txnid"))
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// GatewayResponse receives the browser post on surl and furl. Both go
// through the same verification; the gateway's status decides the outcome.
func (h *PaymentHandler) GatewayResponse(c *gin.Context) {
	values, err := readPayload(c)
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	tx, err := h.payments.HandleGatewayResponse(c.Request.Context(), values)
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	response.RespondSuccess(c, views.Transaction(tx), "payment "+string(tx.Status))
}

func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := readPayload(c)
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	ev, err := h.webhooks.Receive(c.Request.Context(), webhookdto.Notification{
		ID:      c.GetHeader("X-Webhook-Id"),
		Payload: payload,
		Headers: readHeaders(c),
	})
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	response.RespondSuccess(c, gin.H{"webhook_id": ev.WebhookID, "status": ev.Status}, "")
}

func (h *PaymentHandler) RequestRefund(c *gin.Context) {
	var r refundRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	out, err := h.refunds.RequestRefund(c.Request.Context(), &refunddto.RequestRefundInput{
		TxnID:  r.TxnID,
		Amount: r.Amount,
		Type:   r.Type,
		Reason: r.Reason,
	})
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	response.RespondSuccess(c, gin.H{
		"refund":  views.Refund(out.Refund),
		"gateway": out.Gateway,
	}, "refund "+string(out.Refund.Status))
}

func (h *PaymentHandler) GetRefund(c *gin.Context) {
	r, err := h.refunds.GetRefund(c.Request.Context(), c.Param("refund_id"))
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	response.RespondSuccess(c, views.Refund(r), "")
}

// CancelRefund releases a refund that never reached the gateway.
func (h *PaymentHandler) CancelRefund(c *gin.Context) {
	var r cancelRefundRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&r); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid request payload")
			return
		}
	}
	cancelled, err := h.refunds.CancelRefund(c.Request.Context(), c.Param("refund_id"), r.Reason)
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	response.RespondSuccess(c, views.Refund(cancelled), "refund "+string(cancelled.Status))
}

func (h *PaymentHandler) RefundSummary(c *gin.Context) {
	s, err := h.refunds.GetRefundSummary(c.Request.Context(), c.Param("txnid"))
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	response.RespondSuccess(c, views.RefundSummary(s), "")
}

func (h *PaymentHandler) ListWebhooks(c *gin.Context) {
	input := &webhookdto.ListWebhooksInput{
		Status:    c.Query("status"),
		EventType: c.Query("event_type"),
		TxnID:     c.Query("txnid"),
		Limit:     queryInt(c, "limit"),
	}
	if v := c.Query("verified"); v != "" {
		verified, err := strconv.ParseBool(v)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "verified must be a boolean")
			return
		}
		input.Verified = &verified
	}
	evs, err := h.webhooks.ListWebhooks(c.Request.Context(), input)
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	response.RespondSuccess(c, views.Webhooks(evs), "")
}

func (h *PaymentHandler) ReprocessWebhook(c *gin.Context) {
	ev, err := h.webhooks.Reprocess(c.Request.Context(), c.Param("webhook_id"))
	if err != nil {
		response.HandleServiceError(c, err)
		return
	}
	response.RespondSuccess(c, views.Webhook(ev), "")
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

func queryTime(c *gin.Context, key string) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}
