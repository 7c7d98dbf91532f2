package webhook

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"breed_site_backend/platform/config"
	"breed_site_backend/platform/logger"
)

// StatusApplier applies a provider delivery receipt to the notification log.
type StatusApplier interface {
	ApplyStatusUpdate(ctx context.Context, messageID, status string)
}

// Handler serves the provider webhook endpoints.
type Handler struct {
	verifyToken string
	applier     StatusApplier
	dedup       *Dedup
	log         *logger.Logger
}

func NewHandler(cfg config.WebhookConfig, applier StatusApplier, dedup *Dedup, log *logger.Logger) *Handler {
	return &Handler{
		verifyToken: cfg.GetWebhookVerifyToken(),
		applier:     applier,
		dedup:       dedup,
		log:         log,
	}
}

// Name identifies the module in startup logs.
func (h *Handler) Name() string { return "webhook" }

// RegisterRoutes mounts the webhook endpoints on the router.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/whatsapp/webhook", h.Verify)
	r.POST("/whatsapp/webhook", h.Receive)
}

// Verify answers the provider's subscription handshake: echo the challenge
// when the mode and token match, 403 otherwise.
func (h *Handler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.String(http.StatusForbidden, "verification failed")
}

// Receive processes an inbound webhook payload. The provider retries until
// it sees a 2xx, so every structurally valid payload is acknowledged with
// 200 even when nothing in it can be processed.
func (h *Handler) Receive(c *gin.Context) {
	var payload Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Error("webhook payload unreadable", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"status": "rejected", "error": "unreadable payload"})
		return
	}

	messages, receipts, processed := Extract(&payload)
	if !processed {
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	ctx := c.Request.Context()
	applied := 0
	for _, receipt := range receipts {
		if h.dedup.Seen(ctx, receipt.MessageID+":"+receipt.Status) {
			continue
		}
		h.applier.ApplyStatusUpdate(ctx, receipt.MessageID, receipt.Status)
		applied++
	}

	received := 0
	for _, msg := range messages {
		if h.dedup.Seen(ctx, msg.ID) {
			continue
		}
		h.log.Info("inbound whatsapp message",
			"from", msg.From, "messageId", msg.ID, "type", msg.Type)
		received++
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "processed",
		"messages": received,
		"statuses": applied,
	})
}
