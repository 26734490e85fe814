package handlers

import (
	"raddiwala/internal/services"
	"raddiwala/internal/utils"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"

	"github.com/gin-gonic/gin"
)

type CollectorHandler struct {
	partyService services.PartyService
	bidService   services.BidService
	logger       *logger.Logger
}

func NewCollectorHandler(partyService services.PartyService, bidService services.BidService, logger *logger.Logger) *CollectorHandler {
	return &CollectorHandler{
		partyService: partyService,
		bidService:   bidService,
		logger:       logger,
	}
}

// GetProfile returns the collector with shop address and quota state
func (h *CollectorHandler) GetProfile(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}

	profile, err := h.partyService.CollectorProfile(c.Request.Context(), collectorID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", profile)
}

func (h *CollectorHandler) UpdateShopAddress(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}

	var req validators.AddressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := h.partyService.UpdateShopAddress(c.Request.Context(), collectorID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Shop address updated successfully", address)
}

// OngoingRequests lists open requests in the collector's city
func (h *CollectorHandler) OngoingRequests(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}

	requests, err := h.bidService.OngoingForCollector(c.Request.Context(), collectorID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Ongoing pickup requests retrieved successfully", requests, &utils.Meta{Count: len(requests)})
}

// ListBids accepts ?status=accepted|pending
func (h *CollectorHandler) ListBids(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}

	bids, err := h.bidService.ListForCollector(c.Request.Context(), collectorID, services.BidStatusFilter(c.Query("status")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Bids retrieved successfully", bids, &utils.Meta{Count: len(bids)})
}

// PendingPickups lists accepted bids still waiting to be collected
func (h *CollectorHandler) PendingPickups(c *gin.Context) {
	collectorID, _, ok := caller(c)
	if !ok {
		return
	}

	bids, err := h.bidService.PendingPickups(c.Request.Context(), collectorID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Pending pickups retrieved successfully", bids, &utils.Meta{Count: len(bids)})
}
