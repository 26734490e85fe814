package routes

import (
	handlers "raddiwala/internal/handlers/shared"
	"raddiwala/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupCollectorRoutes mounts the raddiwala's profile, shop, work queues and history.
func SetupCollectorRoutes(
	r *gin.RouterGroup,
	collectorHandler *handlers.CollectorHandler,
	partyHandler *handlers.PartyHandler,
	transactionHandler *handlers.TransactionHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	auth gin.HandlerFunc,
) {
	collectors := r.Group("/collectors")
	collectors.Use(auth, middleware.CollectorRequired())
	{
		collectors.GET("/profile", collectorHandler.GetProfile)
		collectors.PUT("/profile", partyHandler.UpdateProfile)
		collectors.POST("/profile-picture", partyHandler.UploadProfilePicture)
		collectors.POST("/device-tokens", partyHandler.RegisterDeviceToken)
		collectors.PUT("/shop-address", collectorHandler.UpdateShopAddress)
		collectors.DELETE("/account", partyHandler.DeleteAccount)

		collectors.GET("/pickup-requests/ongoing", collectorHandler.OngoingRequests)
		collectors.GET("/bids", collectorHandler.ListBids)
		collectors.GET("/pickups/pending", collectorHandler.PendingPickups)

		collectors.GET("/completed-transactions", transactionHandler.ListTransactions)
		collectors.POST("/rate-customer/:id", transactionHandler.RateCustomer)

		collectors.GET("/subscription", subscriptionHandler.GetStatus)
	}
}
