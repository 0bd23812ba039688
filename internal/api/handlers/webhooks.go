package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bridge-local-platform/internal/services"
)

// WebhookHandler receives callbacks from external payment providers.
type WebhookHandler struct {
	payments *services.PaymentService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(payments *services.PaymentService) *WebhookHandler {
	return &WebhookHandler{payments: payments}
}

// StripeWebhook godoc
// @Summary      Stripe webhook endpoint
// @Description  Verifies the signature and settles the matching payment on checkout.session.completed. Replays are acknowledged without side effects.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]string "Event processed"
// @Failure      400 {object} map[string]string "Bad signature or payload"
// @Router       /webhooks/stripe [post]
func (h *WebhookHandler) StripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.payments.HandleStripeWebhook(c.Request.Context(), payload, signature); err != nil {
		respondServiceError(c, err, "Failed to process webhook")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
