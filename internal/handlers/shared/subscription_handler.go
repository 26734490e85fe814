package handlers

import (
	"raddiwala/internal/services"
	"raddiwala/internal/utils"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	subscriptionService services.SubscriptionService
	logger              *logger.Logger
}

func NewSubscriptionHandler(subscriptionService services.SubscriptionService, logger *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

// GetStatus reports premium state and monthly quota usage
func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}

	status, err := h.subscriptionService.Status(c.Request.Context(), collectorID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Subscription status retrieved successfully", status)
}

// CreateOrder opens a gateway order the app pays against before calling Purchase
func (h *SubscriptionHandler) CreateOrder(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}

	var req validators.SubscriptionOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.subscriptionService.CreateOrder(c.Request.Context(), collectorID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Payment order created successfully", order)
}

func (h *SubscriptionHandler) Purchase(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}

	var req validators.SubscriptionPurchaseRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.Purchase(c.Request.Context(), collectorID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Premium subscription activated successfully", sub)
}

func (h *SubscriptionHandler) History(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}

	subs, err := h.subscriptionService.History(c.Request.Context(), collectorID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Subscription history retrieved successfully", subs, &utils.Meta{Count: len(subs)})
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}

	if err := h.subscriptionService.Cancel(c.Request.Context(), collectorID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Subscription cancelled successfully", nil)
}
