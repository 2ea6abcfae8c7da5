package routes

import (
	"time"

	"meetbot/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterWebhookRoute registers the chat platform callback.
func RegisterWebhookRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/webhook", hb.WebhookHandler)
}

// RegisterCalendarRoutes registers calendar import endpoints.
func RegisterCalendarRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/calendar")
	{
		api.POST("/parse", hb.ParseCalendarHandler)
	}
}

// RegisterMeetingRoutes registers finalized meeting endpoints.
func RegisterMeetingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/meetings")
	{
		api.POST("", hb.SubmitMeetingHandler)
		api.GET("/:identity", hb.ListMeetingsHandler)
	}
}

// RegisterVerifyRoute registers the verification link landing endpoint.
func RegisterVerifyRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/verify/:token", hb.VerifyEmailHandler)
}

// RegisterHealthRoute registers health-check endpoints.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
	r.GET("/", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Line-Signature", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterWebhookRoute(r, hb)
	RegisterCalendarRoutes(r, hb)
	RegisterMeetingRoutes(r, hb)
	RegisterVerifyRoute(r, hb)
	RegisterHealthRoute(r, hb)
}
