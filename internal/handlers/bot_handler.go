package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microlearn/whatsapp-bot-backend/internal/config"
	"github.com/microlearn/whatsapp-bot-backend/internal/services"
)

// BotHandler exposes the WhatsApp webhook and the admin messaging endpoints.
type BotHandler struct {
	botService *services.BotService
	cfg        *config.Config
}

// NewBotHandler creates a new BotHandler.
func NewBotHandler(botService *services.BotService, cfg *config.Config) *BotHandler {
	return &BotHandler{botService: botService, cfg: cfg}
}

// Stats handles GET /api/bot/stats.
func (h *BotHandler) Stats(c *gin.Context) {
	stats, err := h.botService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Webhook handles POST /api/bot/webhook, the inbound message callback.
// Twilio posts form-encoded Body and From fields and expects a 200 quickly,
// so the message is handled asynchronously.
func (h *BotHandler) Webhook(c *gin.Context) {
	body := c.PostForm("Body")
	from := strings.TrimPrefix(c.PostForm("From"), "whatsapp:")
	if from == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "From is required"})
		return
	}

	// The request context dies when this handler returns, so the async
	// handling gets a fresh one.
	go h.botService.HandleIncomingMessage(context.Background(), from, body)
	c.String(http.StatusOK, "OK")
}

// VerifyWebhook handles GET /api/bot/webhook, the provider's subscription
// handshake.
func (h *BotHandler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.cfg.WhatsApp.VerifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.String(http.StatusForbidden, "Forbidden")
}

type sendMessageRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

// SendMessage handles POST /api/bot/send-message.
func (h *BotHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phoneNumber and message are required"})
		return
	}

	msgID, err := h.botService.SendDirect(c.Request.Context(), req.PhoneNumber, req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messageId": msgID})
}

type broadcastRequest struct {
	Message     string `json:"message" binding:"required"`
	TargetGroup string `json:"targetGroup"`
}

// Broadcast handles POST /api/bot/broadcast.
func (h *BotHandler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if req.TargetGroup == "" {
		req.TargetGroup = "all"
	}

	results, err := h.botService.Broadcast(c.Request.Context(), req.Message, req.TargetGroup)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Broadcast failed"})
		return
	}

	sent := 0
	for _, r := range results {
		if r.Success {
			sent++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"sent":    sent,
		"failed":  len(results) - sent,
		"results": results,
	})
}
