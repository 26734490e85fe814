package handlers

import (
	"net/http"

	"raddiwala/internal/config"
	"raddiwala/internal/services"
	"raddiwala/internal/utils"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
	security    *config.SecurityConfig
	logger      *logger.Logger
}

func NewAuthHandler(authService services.AuthService, security *config.SecurityConfig, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		security:    security,
		logger:      logger,
	}
}

// SendOTP emails a one-time code for signup or login
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req validators.SendOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.SendOTP(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, resp.Message, resp)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req validators.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Signup(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setSessionCookie(c, resp.Token)
	utils.CreatedResponse(c, "Account created successfully", resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req validators.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setSessionCookie(c, resp.Token)
	utils.SuccessResponse(c, "Login successful", resp)
}

// Logout clears the session cookie. Bearer tokens simply expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.security.CookieName, "", -1, "/", "", h.security.CookieSecure, true)
	utils.SuccessResponse(c, "Logged out successfully", nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	partyID, role, ok := caller(c)
	if !ok {
		return
	}

	account, err := h.authService.Me(c.Request.Context(), partyID, role)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "User retrieved successfully", account)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	ttl := h.security.JWTTokenTTL
	if ttl <= 0 {
		ttl = utils.DefaultTokenTTL
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.security.CookieName, token, int(ttl.Seconds()), "/", "", h.security.CookieSecure, true)
}
