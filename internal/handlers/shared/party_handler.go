package handlers

import (
	"mime/multipart"

	"raddiwala/internal/services"
	"raddiwala/internal/utils"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PartyHandler serves the account endpoints customers and collectors share.
// The role comes from the session, so one handler backs both route groups.
type PartyHandler struct {
	partyService services.PartyService
	logger       *logger.Logger
}

func NewPartyHandler(partyService services.PartyService, logger *logger.Logger) *PartyHandler {
	return &PartyHandler{
		partyService: partyService,
		logger:       logger,
	}
}

func (h *PartyHandler) UpdateProfile(c *gin.Context) {
	partyID, role, ok := caller(c)
	if !ok {
		return
	}

	var req validators.ProfileUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.partyService.UpdateProfile(c.Request.Context(), partyID, role, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile updated successfully", nil)
}

// UploadProfilePicture expects a multipart form with a "profile_picture" file
func (h *PartyHandler) UploadProfilePicture(c *gin.Context) {
	partyID, role, ok := caller(c)
	if !ok {
		return
	}

	header, err := c.FormFile("profile_picture")
	if err != nil {
		utils.BadRequestResponse(c, "No file uploaded")
		return
	}
	uploads, closeAll, err := openUploads([]*multipart.FileHeader{header})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer closeAll()

	url, err := h.partyService.UploadProfilePicture(c.Request.Context(), partyID, role, uploads[0])
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile picture updated successfully", gin.H{"profile_picture": url})
}

func (h *PartyHandler) RegisterDeviceToken(c *gin.Context) {
	partyID, role, ok := caller(c)
	if !ok {
		return
	}

	var req validators.DeviceTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.partyService.RegisterDeviceToken(c.Request.Context(), partyID, role, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Device token registered successfully", nil)
}

// DeleteAccount soft-deletes the caller's account
func (h *PartyHandler) DeleteAccount(c *gin.Context) {
	partyID, role, ok := caller(c)
	if !ok {
		return
	}

	if err := h.partyService.Deactivate(c.Request.Context(), partyID, role); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Account deleted successfully", nil)
}
