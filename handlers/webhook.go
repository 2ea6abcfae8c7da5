package handlers

import (
	"context"
	"errors"
	"net/http"

	"meetbot/models"
	"meetbot/services/messaging"
	"meetbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgProcessingFailed = "ขออภัย เกิดข้อผิดพลาดในการประมวลผล กรุณาลองใหม่อีกครั้ง"

// EventHandler advances the conversation for one inbound event.
type EventHandler interface {
	Handle(ctx context.Context, ev models.InboundEvent) ([]models.OutgoingMessage, error)
}

// WebhookHandler receives chat platform callbacks.
type WebhookHandler struct {
	Channel messaging.Channel
	Events  EventHandler
}

func NewWebhookHandler(channel messaging.Channel, events EventHandler) *WebhookHandler {
	return &WebhookHandler{Channel: channel, Events: events}
}

// CallbackHandler verifies and parses the webhook body, runs every event
// through the dialogue and replies to each.
func (h *WebhookHandler) CallbackHandler(c *gin.Context) {
	logger := getLogger(c)

	events, err := h.Channel.ParseEvents(c.Request)
	if err != nil {
		if errors.Is(err, messaging.ErrInvalidSignature) {
			utils.JSONError(c, http.StatusBadRequest, "Invalid signature", "")
			return
		}
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook payload", err.Error())
		return
	}

	for _, ev := range events {
		h.dispatch(c.Request.Context(), logger, ev)
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (h *WebhookHandler) dispatch(ctx context.Context, logger *zap.Logger, ev models.InboundEvent) {
	logger = logger.With(zap.String("identity", ev.Identity), zap.String("kind", string(ev.Kind)))

	msgs, err := h.Events.Handle(ctx, ev)
	if err != nil {
		logger.Error("Failed to handle chat event", zap.Error(err))
		msgs = []models.OutgoingMessage{models.TextMessage(msgProcessingFailed)}
	}
	if len(msgs) == 0 {
		return
	}

	if ev.ReplyToken != "" {
		err := h.Channel.Reply(ctx, ev.ReplyToken, msgs)
		if err == nil {
			return
		}
		logger.Warn("Reply failed, falling back to push", zap.Error(err))
	}
	if ev.Identity == "" {
		return
	}
	if err := h.Channel.Push(ctx, ev.Identity, msgs); err != nil {
		logger.Error("Failed to deliver chat reply", zap.Error(err))
	}
}
