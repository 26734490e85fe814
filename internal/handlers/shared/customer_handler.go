package handlers

import (
	"raddiwala/internal/models"
	"raddiwala/internal/services"
	"raddiwala/internal/utils"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	partyService  services.PartyService
	pickupService services.PickupService
	logger        *logger.Logger
}

func NewCustomerHandler(partyService services.PartyService, pickupService services.PickupService, logger *logger.Logger) *CustomerHandler {
	return &CustomerHandler{
		partyService:  partyService,
		pickupService: pickupService,
		logger:        logger,
	}
}

// GetProfile returns the customer with every saved address
func (h *CustomerHandler) GetProfile(c *gin.Context) {
	customerID, _, ok := caller(c)
	if !ok {
		return
	}

	profile, err := h.partyService.CustomerProfile(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", profile)
}

func (h *CustomerHandler) AddAddress(c *gin.Context) {
	customerID, _, ok := caller(c)
	if !ok {
		return
	}

	var req validators.AddressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := h.partyService.AddAddress(c.Request.Context(), customerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Address added successfully", address)
}

func (h *CustomerHandler) UpdateAddress(c *gin.Context) {
	customerID, _, ok := caller(c)
	if !ok {
		return
	}
	addressID, ok := pathID(c, "address_id")
	if !ok {
		return
	}

	var req validators.AddressUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := h.partyService.UpdateAddress(c.Request.Context(), customerID, addressID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Address updated successfully", address)
}

func (h *CustomerHandler) DeleteAddress(c *gin.Context) {
	customerID, _, ok := caller(c)
	if !ok {
		return
	}
	addressID, ok := pathID(c, "address_id")
	if !ok {
		return
	}

	if err := h.partyService.DeleteAddress(c.Request.Context(), customerID, addressID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Address deleted successfully", nil)
}

// ListPickupRequests accepts an optional ?status= filter
func (h *CustomerHandler) ListPickupRequests(c *gin.Context) {
	customerID, _, ok := caller(c)
	if !ok {
		return
	}

	requests, err := h.pickupService.ListForCustomer(c.Request.Context(), customerID, models.PickupStatus(c.Query("status")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Pickup requests retrieved successfully", requests, &utils.Meta{Count: len(requests)})
}

// PendingPickupRequests lists open requests together with the bids they received
func (h *CustomerHandler) PendingPickupRequests(c *gin.Context) {
	customerID, _, ok := caller(c)
	if !ok {
		return
	}

	requests, err := h.pickupService.PendingForCustomer(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Pending pickup requests retrieved successfully", requests, &utils.Meta{Count: len(requests)})
}
