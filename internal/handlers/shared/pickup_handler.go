package handlers

import (
	"net/http"

	"raddiwala/internal/services"
	"raddiwala/internal/utils"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"

	"github.com/gin-gonic/gin"
)

type PickupHandler struct {
	pickupService services.PickupService
	maxFormSize   int64
	logger        *logger.Logger
}

func NewPickupHandler(pickupService services.PickupService, maxFormSize int64, logger *logger.Logger) *PickupHandler {
	return &PickupHandler{
		pickupService: pickupService,
		maxFormSize:   maxFormSize,
		logger:        logger,
	}
}

// CreatePickupRequest takes a multipart form: the request fields plus one or more "photos"
func (h *PickupHandler) CreatePickupRequest(c *gin.Context) {
	customerID, _, ok := caller(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFormSize)
	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form: "+err.Error())
		return
	}

	var req validators.PickupRequestCreateRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	photos, closeAll, err := openUploads(form.File["photos"])
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer closeAll()

	request, err := h.pickupService.Create(c.Request.Context(), customerID, &req, photos)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Pickup request created successfully", request)
}

func (h *PickupHandler) GetPickupRequest(c *gin.Context) {
	partyID, role, ok := caller(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}

	request, err := h.pickupService.Get(c.Request.Context(), requestID, partyID, role)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Pickup request retrieved successfully", request)
}

func (h *PickupHandler) UpdatePickupRequest(c *gin.Context) {
	customerID, _, ok := caller(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.PickupRequestUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	request, err := h.pickupService.Update(c.Request.Context(), customerID, requestID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Pickup request updated successfully", request)
}

func (h *PickupHandler) ListBids(c *gin.Context) {
	customerID, _, ok := caller(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}

	bids, err := h.pickupService.ListBids(c.Request.Context(), customerID, requestID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Bids retrieved successfully", bids, &utils.Meta{Count: len(bids)})
}

func (h *PickupHandler) AcceptBid(c *gin.Context) {
	customerID, _, ok := caller(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.AcceptBidRequest
	if !bindJSON(c, &req) {
		return
	}

	request, err := h.pickupService.AcceptBid(c.Request.Context(), customerID, requestID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Bid accepted successfully", request)
}

func (h *PickupHandler) CancelPickupRequest(c *gin.Context) {
	customerID, _, ok := caller(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.pickupService.Cancel(c.Request.Context(), customerID, requestID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Pickup request cancelled successfully", nil)
}
