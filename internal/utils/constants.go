package utils

import "time"

const (
	AppName = "RaddiWala"

	StatusSuccess = "success"
	StatusError   = "error"

	// Pagination
	DefaultPageSize = 10
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	DefaultTokenTTL = 7 * 24 * time.Hour
	OTPMin          = 1000
	OTPMax          = 9999

	// File Upload
	MaxImageSize          = 5 * 1024 * 1024 // 5MB
	ProfilePictureMaxSide = 400

	// Context keys set by the auth middleware
	ContextPartyID   = "party_id"
	ContextRole      = "role"
	ContextRequestID = "request_id"
)

var AllowedImageTypes = []string{"jpg", "jpeg", "png", "gif", "webp"}

// Error messages
const (
	ErrValidationFailed = "Validation failed"
	ErrInternalServer   = "Internal server error"
	ErrUnauthorized     = "Authentication required"
	ErrForbidden        = "Access denied"
	ErrInvalidToken     = "Invalid or expired token"
	ErrInvalidID        = "Invalid ID format"
)
