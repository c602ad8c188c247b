package handlers

import (
  "crypto/subtle"
  "fmt"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/lilybloom/babynames-backend/internal/services"
)

type BillingWebhookHandler struct {
  billingService services.BillingService
  webhookSecret  string
}

func NewBillingWebhookHandler(billingService services.BillingService, webhookSecret string) *BillingWebhookHandler {
  return &BillingWebhookHandler{billingService: billingService, webhookSecret: webhookSecret}
}

// HandleEvent serves POST /webhooks/billing. The processor retries on
// non-2xx, so unknown users get a 200 with a logged skip rather than an
// endless redelivery loop.
func (bh *BillingWebhookHandler) HandleEvent(c *gin.Context) {
  provided := c.GetHeader("X-Webhook-Secret")
  if subtle.ConstantTimeCompare([]byte(provided), []byte(bh.webhookSecret)) != 1 {
    RespondError(c, http.StatusUnauthorized, "invalid_signature", fmt.Errorf("webhook secret mismatch"))
    return
  }

  var event services.BillingEvent
  if err := c.ShouldBindJSON(&event); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }

  if err := bh.billingService.HandleEvent(c.Request.Context(), &event); err != nil {
    RespondError(c, http.StatusInternalServerError, "billing_failed", err)
    return
  }
  RespondOK(c, gin.H{"status": "received"})
}
