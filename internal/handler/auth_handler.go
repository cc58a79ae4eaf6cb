package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/sellerstat/sellerstat_api/internal/cache"
	"github.com/sellerstat/sellerstat_api/internal/middleware"
	"github.com/sellerstat/sellerstat_api/internal/service"
	"github.com/sellerstat/sellerstat_api/internal/utils"
)

// AuthHandler handles the account lifecycle endpoints.
type AuthHandler struct {
	authService  *service.AuthService
	loginLimiter *cache.LoginLimiter
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService *service.AuthService, loginLimiter *cache.LoginLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, loginLimiter: loginLimiter}
}

// Register creates an account. The phone number doubles as the username and
// must match the +7XXXXXXXXXX format.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phoneNumber" binding:"required"`
		Password    string `json:"password" binding:"required,min=6"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, err := h.authService.Register(req.PhoneNumber, req.Password, req.FirstName, req.LastName)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidPhone):
			utils.Error(c, 400, "INVALID_PHONE", "Wrong phone number format, it should start with '+7' and have 11 digits. Example: '+77777777777'")
		case errors.Is(err, utils.ErrPhoneTaken):
			utils.Error(c, 409, "PHONE_TAKEN", "User with this phone number already exists")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Registration failed")
		}
		return
	}

	utils.Success(c, 201, "Account registered", user)
}

// Login authenticates an account, binds the device on first login, revokes
// all earlier tokens and issues a fresh access/refresh pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		DeviceID string `json:"deviceId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, tokens, err := h.authService.Login(req.Username, req.Password, req.DeviceID)
	if err != nil {
		h.writeLoginError(c, err)
		return
	}

	h.loginLimiter.Reset(c.Request.Context(), c.ClientIP())
	utils.Success(c, 200, "Login successful", gin.H{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
		"user":    user,
	})
}

// writeLoginError maps login failures to API errors, throttling repeated
// invalid attempts per IP.
func (h *AuthHandler) writeLoginError(c *gin.Context, err error) {
	if !h.loginLimiter.Allow(c.Request.Context(), c.ClientIP()) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many failed login attempts")
		return
	}

	switch {
	case errors.Is(err, utils.ErrInvalidCredentials):
		utils.Error(c, 401, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, utils.ErrAccountInactive):
		utils.Error(c, 403, "ACCOUNT_INACTIVE", "Account is inactive")
	case errors.Is(err, utils.ErrDeviceTaken):
		utils.Error(c, 409, "DEVICE_TAKEN", "Device is already registered to another account")
	case errors.Is(err, utils.ErrDeviceConflict):
		utils.Error(c, 409, "DEVICE_CONFLICT", "Account is already registered on another device")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Login failed")
	}
}

// Logout revokes every outstanding token for the authenticated account,
// including the one used for this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Authentication required")
		return
	}
	if err := h.authService.Logout(user.ID); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Logout failed")
		return
	}
	utils.Success(c, 200, "Logged out", nil)
}

// Profile returns the authenticated account.
func (h *AuthHandler) Profile(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Authentication required")
		return
	}
	profile, err := h.authService.Profile(user.ID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load profile")
		return
	}
	utils.Success(c, 200, "Profile retrieved successfully", profile)
}
