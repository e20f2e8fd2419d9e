// README: Payment gateway webhook; authenticated by signature, not by token.
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	booking BookingService
}

func NewPaymentHandler(svc BookingService) *PaymentHandler {
	return &PaymentHandler{booking: svc}
}

func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		writeError(c, http.StatusBadRequest, "unreadable body")
		return
	}
	if err := h.booking.HandlePaymentWebhook(c.Request.Context(), body, c.GetHeader("X-Razorpay-Signature")); err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}
