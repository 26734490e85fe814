package middleware

import (
	"context"
	"net/http"
	"strings"

	"raddiwala/internal/models"
	"raddiwala/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PartyChecker reports whether the account behind a token is still active.
type PartyChecker interface {
	Active(ctx context.Context, partyID primitive.ObjectID, role models.Role) (bool, error)
}

// AuthRequired accepts a session token from the cookie or a Bearer header and
// sets the party id and role on the context. Tokens of deleted accounts are
// rejected when parties is set.
func AuthRequired(jwtSecret, cookieName string, parties PartyChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c, cookieName)
		if tokenString == "" {
			utils.UnauthorizedResponse(c, "Authentication token required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			utils.UnauthorizedResponse(c, utils.ErrInvalidToken)
			c.Abort()
			return
		}

		partyID, err := claims.PartyID()
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid party ID in token")
			c.Abort()
			return
		}

		role := models.Role(claims.Role)
		if !role.IsValid() {
			utils.UnauthorizedResponse(c, "Invalid role in token")
			c.Abort()
			return
		}

		if parties != nil {
			active, err := parties.Active(c.Request.Context(), partyID, role)
			if err != nil {
				c.Error(err)
				utils.InternalServerErrorResponse(c)
				c.Abort()
				return
			}
			if !active {
				utils.UnauthorizedResponse(c, "Account is no longer active")
				c.Abort()
				return
			}
		}

		c.Set(utils.ContextPartyID, partyID)
		c.Set(utils.ContextRole, role)

		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			return token
		}
	}

	authHeader := c.GetHeader("Authorization")
	if token := strings.TrimPrefix(authHeader, "Bearer "); token != authHeader {
		return strings.TrimSpace(token)
	}
	return ""
}

// CustomerRequired ensures the caller signed in as a customer
func CustomerRequired() gin.HandlerFunc {
	return requireRole(models.RoleCustomer, "Customer access required")
}

// CollectorRequired ensures the caller signed in as a raddiwala
func CollectorRequired() gin.HandlerFunc {
	return requireRole(models.RoleCollector, "Raddiwala access required")
}

func requireRole(want models.Role, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}
		if role != want {
			utils.ErrorResponse(c, http.StatusForbidden, "ACCESS_DENIED", message)
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetPartyID(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get(utils.ContextPartyID)
	if !exists {
		return primitive.NilObjectID, false
	}
	id, ok := value.(primitive.ObjectID)
	return id, ok
}

func GetRole(c *gin.Context) (models.Role, bool) {
	value, exists := c.Get(utils.ContextRole)
	if !exists {
		return "", false
	}
	role, ok := value.(models.Role)
	return role, ok
}
