// internal/handlers/payment/payment.go
package payment

import (
	"io"
	"net/http"

	"helloaca-service/internal/domain/subscription"
	"helloaca-service/internal/middleware"
	"helloaca-service/internal/pkg/response"
	paymentsvc "helloaca-service/internal/service/payment"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	paymentService *paymentsvc.Service
}

func NewPaymentHandler(paymentService *paymentsvc.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Subscribe starts a paid-plan checkout.
func (h *PaymentHandler) Subscribe(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req subscription.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid subscribe request", err.Error())
		return
	}

	resp, err := h.paymentService.Subscribe(c.Request.Context(), userID, middleware.GetEmail(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Webhook receives gateway deliveries. The signature is checked over
// the raw body; after that the delivery is acknowledged with 200 no
// matter what processing does, so the gateway does not retry into
// failures we already logged.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.ValidationError(c, "unreadable webhook body", nil)
		return
	}

	if err := h.paymentService.VerifyWebhook(raw, c.GetHeader("x-paystack-signature")); err != nil {
		response.FromError(c, err)
		return
	}

	h.paymentService.ProcessWebhook(c.Request.Context(), raw)
	response.JSON(c, http.StatusOK, gin.H{"status": "ok"})
}
