package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/farellandr/ticketgate/internal/helpers"
	"github.com/farellandr/ticketgate/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	HeaderSignature     = "X-Signature"
	maxWebhookBodyBytes = 64 << 10
)

var settledPaymentStatuses = map[string]bool{
	"PAID":    true,
	"SETTLED": true,
}

type WebhookHandler struct {
	tickets *services.TicketService
	signer  *helpers.WebhookSigner
}

func NewWebhookHandler(tickets *services.TicketService, signer *helpers.WebhookSigner) *WebhookHandler {
	return &WebhookHandler{tickets: tickets, signer: signer}
}

type PaymentNotification struct {
	TicketID         string `json:"ticketId"`
	PaymentReference string `json:"paymentReference"`
	Status           string `json:"status"`
}

// PaymentConfirmed receives the payment provider's notification. The raw body
// is signature-checked before it is decoded.
func (h *WebhookHandler) PaymentConfirmed(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Failed to read request body.")
		return
	}

	if !h.signer.Verify(body, c.GetHeader(HeaderSignature)) {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid signature.")
		return
	}

	var notification PaymentNotification
	if err := json.Unmarshal(body, &notification); err != nil || notification.TicketID == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid payment notification.")
		return
	}

	if !settledPaymentStatuses[strings.ToUpper(notification.Status)] {
		c.JSON(http.StatusOK, gin.H{"message": "Notification ignored.", "status": notification.Status})
		return
	}

	ticket, err := h.tickets.ConfirmPayment(c.Request.Context(), notification.TicketID, notification.PaymentReference)
	if err != nil {
		helpers.RespondWithServiceError(c, err, "Failed to confirm payment.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment confirmed.",
		"ticket":  ticket,
	})
}
