package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sellerstat/sellerstat_api/internal/models"
	"github.com/sellerstat/sellerstat_api/internal/service"
	"github.com/sellerstat/sellerstat_api/internal/utils"
)

// DeviceHeader carries the caller's device id on authenticated requests.
const DeviceHeader = "X-Device-ID"

// JWTMiddleware authenticates requests with versioned bearer tokens and
// optionally enforces device binding and staff access.
type JWTMiddleware struct {
	authService *service.AuthService
}

// NewJWTMiddleware constructs a JWTMiddleware.
func NewJWTMiddleware(authService *service.AuthService) *JWTMiddleware {
	return &JWTMiddleware{authService: authService}
}

// Handle validates the bearer token and compares its token_version claim
// against the account's current value. Tokens issued before the last
// login/logout/reset are rejected as revoked.
func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Error(c, 401, "UNAUTHORIZED", "Invalid authorization header")
			c.Abort()
			return
		}

		user, claims, err := m.authService.VerifyAccess(parts[1])
		if err != nil {
			switch {
			case errors.Is(err, utils.ErrTokenRevoked):
				utils.Error(c, 401, "TOKEN_REVOKED", "Token has been revoked")
			case errors.Is(err, utils.ErrAccountInactive):
				utils.Error(c, 403, "ACCOUNT_INACTIVE", "Account is inactive")
			default:
				utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			}
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("claims", claims)
		c.Next()
	}
}

// RequireDevice enforces the device binding: the declared device header must
// match the account's bound device. Must run after Handle.
func (m *JWTMiddleware) RequireDevice() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil {
			utils.Error(c, 401, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}
		deviceID := c.GetHeader(DeviceHeader)
		if user.DeviceID == nil || deviceID != *user.DeviceID {
			utils.Error(c, 403, "INVALID_DEVICE", "Invalid device")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireStaff limits an endpoint to operator accounts. Must run after Handle.
func (m *JWTMiddleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil || !user.IsStaff {
			utils.Error(c, 403, "FORBIDDEN", "Staff access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUser returns the authenticated user from context, or nil.
func GetUser(c *gin.Context) *models.User {
	v, _ := c.Get("user")
	if v == nil {
		return nil
	}
	return v.(*models.User)
}
