package handlers

import (
	"net/http"

	"meetbot/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness with the last dependency snapshot.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"message":      "LINE Bot Meeting Scheduler is running",
		"dependencies": utils.GetHealthStatus(),
	})
}
