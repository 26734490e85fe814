package handlers

import (
	"raddiwala/internal/services"
	"raddiwala/internal/utils"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"

	"github.com/gin-gonic/gin"
)

type BidHandler struct {
	bidService        services.BidService
	settlementService services.SettlementService
	logger            *logger.Logger
}

func NewBidHandler(bidService services.BidService, settlementService services.SettlementService, logger *logger.Logger) *BidHandler {
	return &BidHandler{
		bidService:        bidService,
		settlementService: settlementService,
		logger:            logger,
	}
}

func (h *BidHandler) PlaceBid(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}

	var req validators.BidCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	bid, err := h.bidService.Place(c.Request.Context(), collectorID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Bid placed successfully", bid)
}

// GetBid is open to the bidding collector and the customer who owns the request
func (h *BidHandler) GetBid(c *gin.Context) {
	partyID, role, ok := caller(c)
	if !ok {
		return
	}
	bidID, ok := pathID(c, "id")
	if !ok {
		return
	}

	bid, err := h.bidService.Get(c.Request.Context(), bidID, partyID, role)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Bid retrieved successfully", bid)
}

func (h *BidHandler) UpdateBid(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}
	bidID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.BidUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	bid, err := h.bidService.Update(c.Request.Context(), collectorID, bidID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Bid updated successfully", bid)
}

func (h *BidHandler) DeleteBid(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}
	bidID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.bidService.Delete(c.Request.Context(), collectorID, bidID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Bid deleted successfully", nil)
}

// CompletePickup settles an accepted bid. The body is optional.
func (h *BidHandler) CompletePickup(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}
	bidID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.CompletePickupRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	txn, err := h.settlementService.Complete(c.Request.Context(), collectorID, bidID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Pickup completed successfully", txn)
}
