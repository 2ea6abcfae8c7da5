package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Chat webhook
	WebhookHandler gin.HandlerFunc

	// Calendar import
	ParseCalendarHandler gin.HandlerFunc

	// Meeting endpoints
	ListMeetingsHandler  gin.HandlerFunc
	SubmitMeetingHandler gin.HandlerFunc

	// Verification links
	VerifyEmailHandler gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}
