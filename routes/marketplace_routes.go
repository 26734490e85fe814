package routes

import (
	handlers "raddiwala/internal/handlers/shared"
	"raddiwala/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPickupRoutes mounts pickup request routes. Reading a single request is
// open to both roles; the service decides visibility.
func SetupPickupRoutes(r *gin.RouterGroup, pickupHandler *handlers.PickupHandler, auth gin.HandlerFunc) {
	requests := r.Group("/pickup-requests")
	requests.Use(auth)
	{
		requests.GET("/:id", pickupHandler.GetPickupRequest)

		owner := requests.Group("")
		owner.Use(middleware.CustomerRequired())
		{
			owner.POST("", pickupHandler.CreatePickupRequest)
			owner.PUT("/:id", pickupHandler.UpdatePickupRequest)
			owner.GET("/:id/bids", pickupHandler.ListBids)
			owner.POST("/:id/accept-bid", pickupHandler.AcceptBid)
			owner.POST("/:id/cancel", pickupHandler.CancelPickupRequest)
		}
	}
}

// SetupBidRoutes mounts bid routes. Collectors write, both roles may read a bid they are party to.
func SetupBidRoutes(r *gin.RouterGroup, bidHandler *handlers.BidHandler, auth gin.HandlerFunc) {
	bids := r.Group("/bids")
	bids.Use(auth)
	{
		bids.GET("/:id", bidHandler.GetBid)

		collector := bids.Group("")
		collector.Use(middleware.CollectorRequired())
		{
			collector.POST("", bidHandler.PlaceBid)
			collector.PUT("/:id", bidHandler.UpdateBid)
			collector.DELETE("/:id", bidHandler.DeleteBid)
			collector.POST("/:id/complete", bidHandler.CompletePickup)
		}
	}
}
