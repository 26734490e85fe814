package routes

import (
	handlers "raddiwala/internal/handlers/shared"
	"raddiwala/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSubscriptionRoutes(r *gin.RouterGroup, subscriptionHandler *handlers.SubscriptionHandler, auth gin.HandlerFunc) {
	subscriptions := r.Group("/subscriptions")
	subscriptions.Use(auth, middleware.CollectorRequired())
	{
		subscriptions.GET("", subscriptionHandler.GetStatus)
		subscriptions.GET("/status", subscriptionHandler.GetStatus)
		subscriptions.GET("/history", subscriptionHandler.History)
		subscriptions.POST("/order", subscriptionHandler.CreateOrder)
		subscriptions.POST("/purchase", subscriptionHandler.Purchase)
		subscriptions.POST("/cancel", subscriptionHandler.Cancel)
	}
}
