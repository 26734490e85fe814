package routes

import (
	handlers "raddiwala/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupLiveRoutes mounts the event socket. Browsers authenticate with the session cookie.
func SetupLiveRoutes(r *gin.RouterGroup, liveHandler *handlers.LiveHandler, auth gin.HandlerFunc) {
	r.GET("/ws", auth, liveHandler.Connect)
}
