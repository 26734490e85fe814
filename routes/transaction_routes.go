package routes

import (
	handlers "raddiwala/internal/handlers/shared"
	"raddiwala/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupTransactionRoutes(r *gin.RouterGroup, transactionHandler *handlers.TransactionHandler, auth gin.HandlerFunc) {
	transactions := r.Group("/transactions")
	transactions.Use(auth)
	{
		transactions.GET("", transactionHandler.ListTransactions)
		transactions.GET("/stats/summary", transactionHandler.GetStats)
		transactions.GET("/:id", transactionHandler.GetTransaction)
		transactions.PUT("/:id/payment-status", transactionHandler.UpdatePaymentStatus)

		transactions.POST("/:id/customer-rating", middleware.CustomerRequired(), transactionHandler.RateCollector)
		transactions.POST("/:id/collector-rating", middleware.CollectorRequired(), transactionHandler.RateCustomer)
	}
}
