package handlers

import (
	"errors"
	"net/http"

	"raddiwala/internal/middleware"
	"raddiwala/internal/models"
	"raddiwala/internal/services"
	"raddiwala/internal/utils"
	"raddiwala/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type errorMapping struct {
	kind   error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{services.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{services.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
	{services.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{services.ErrAccessDenied, http.StatusForbidden, "ACCESS_DENIED"},
	{services.ErrDuplicateBid, http.StatusConflict, "DUPLICATE_BID"},
	{services.ErrQuotaExceeded, http.StatusForbidden, "QUOTA_EXCEEDED"},
	{services.ErrGeoMismatch, http.StatusBadRequest, "GEO_MISMATCH"},
	{services.ErrAlreadyRated, http.StatusConflict, "ALREADY_RATED"},
	{services.ErrAlreadyUsed, http.StatusBadRequest, "OTP_ALREADY_USED"},
	{services.ErrExpired, http.StatusBadRequest, "OTP_EXPIRED"},
	{services.ErrInvalidCode, http.StatusBadRequest, "INVALID_OTP"},
	{services.ErrConflict, http.StatusConflict, "CONFLICT"},
	{services.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{services.ErrPaymentFailed, http.StatusPaymentRequired, "PAYMENT_FAILED"},
	{services.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
}

// respondError writes the status for a service error. Anything that is not a
// domain error is logged and reported as an internal error.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		for _, m := range errorMappings {
			if errors.Is(domainErr.Kind, m.kind) {
				if len(domainErr.Details) > 0 {
					utils.ErrorResponseWithDetails(c, m.status, m.code, domainErr.Message, domainErr.Details)
				} else {
					utils.ErrorResponse(c, m.status, m.code, domainErr.Message)
				}
				return
			}
		}
	}

	entry := log.WithError(err).WithFields(map[string]interface{}{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	})
	if requestID, ok := c.Get(utils.ContextRequestID); ok {
		entry = entry.WithField("request_id", requestID)
	}
	entry.Error("Request failed")
	utils.InternalServerErrorResponse(c)
}

// caller returns the authenticated party. Routes are always mounted behind
// AuthRequired, so a miss is answered with 401.
func caller(c *gin.Context) (primitive.ObjectID, models.Role, bool) {
	partyID, ok := middleware.GetPartyID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return primitive.NilObjectID, "", false
	}
	role, ok := middleware.GetRole(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return primitive.NilObjectID, "", false
	}
	return partyID, role, true
}

func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, utils.ErrInvalidID)
		return primitive.NilObjectID, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return false
	}
	return true
}
