package handlers

import (
	"net/http"

	"meetbot/models"
	"meetbot/services/messaging"
	"meetbot/services/verification"
	"meetbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgVerified = "เข้าสู่ระบบสำเร็จ! คุณสามารถกลับไปใช้งาน LINE Bot ได้แล้ว"

// TokenValidator checks verification tokens.
type TokenValidator interface {
	ValidateToken(token string) (*verification.Claims, error)
}

// VerifyHandler is the landing endpoint of verification links.
type VerifyHandler struct {
	Tokens TokenValidator
	// Channel, when set, tells the chat user their email was confirmed.
	Channel messaging.Channel
}

func NewVerifyHandler(tokens TokenValidator, channel messaging.Channel) *VerifyHandler {
	return &VerifyHandler{Tokens: tokens, Channel: channel}
}

func (h *VerifyHandler) VerifyEmailHandler(c *gin.Context) {
	logger := getLogger(c)
	if h.Tokens == nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "Email verification is not configured", "")
		return
	}

	claims, err := h.Tokens.ValidateToken(c.Param("token"))
	if err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "Invalid or expired verification link", err.Error())
		return
	}

	if h.Channel != nil && claims.Identity != "" {
		notice := models.TextMessage("✅ ยืนยันอีเมล " + claims.Email + " เรียบร้อยแล้ว")
		if err := h.Channel.Push(c.Request.Context(), claims.Identity, []models.OutgoingMessage{notice}); err != nil {
			logger.Warn("Failed to push verification notice", zap.String("identity", claims.Identity), zap.Error(err))
		}
	}

	logger.Info("Email verified", zap.String("email", claims.Email))
	c.JSON(http.StatusOK, gin.H{"message": msgVerified, "email": claims.Email})
}
