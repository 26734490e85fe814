package routes

import (
	handlers "raddiwala/internal/handlers/shared"
	"raddiwala/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupCustomerRoutes mounts the customer's own profile, addresses, requests and history.
func SetupCustomerRoutes(
	r *gin.RouterGroup,
	customerHandler *handlers.CustomerHandler,
	partyHandler *handlers.PartyHandler,
	transactionHandler *handlers.TransactionHandler,
	auth gin.HandlerFunc,
) {
	customers := r.Group("/customers")
	customers.Use(auth, middleware.CustomerRequired())
	{
		customers.GET("/profile", customerHandler.GetProfile)
		customers.PUT("/profile", partyHandler.UpdateProfile)
		customers.POST("/profile-picture", partyHandler.UploadProfilePicture)
		customers.POST("/device-tokens", partyHandler.RegisterDeviceToken)
		customers.DELETE("/account", partyHandler.DeleteAccount)

		customers.POST("/addresses", customerHandler.AddAddress)
		customers.PUT("/addresses/:address_id", customerHandler.UpdateAddress)
		customers.DELETE("/addresses/:address_id", customerHandler.DeleteAddress)

		customers.GET("/pickup-requests", customerHandler.ListPickupRequests)
		customers.GET("/pickup-requests/pending", customerHandler.PendingPickupRequests)

		customers.GET("/completed-transactions", transactionHandler.ListTransactions)
		customers.POST("/rate-collector/:id", transactionHandler.RateCollector)
	}
}
