package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sellerstat/sellerstat_api/internal/models"
	"github.com/sellerstat/sellerstat_api/internal/service"
	"github.com/sellerstat/sellerstat_api/internal/utils"
)

// AdminHandler exposes operator actions: spreadsheet import, device resets
// and payment status changes.
type AdminHandler struct {
	importService *service.ImportService
	authService   *service.AuthService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(importService *service.ImportService, authService *service.AuthService) *AdminHandler {
	return &AdminHandler{importService: importService, authService: authService}
}

// ImportCatalog accepts a multipart XLSX upload and an optional sheet_name
// form field, and runs the transactional import.
func (h *AdminHandler) ImportCatalog(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Missing file upload")
		return
	}
	sheetName := c.PostForm("sheet_name")

	file, err := fileHeader.Open()
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Cannot read uploaded file")
		return
	}
	defer file.Close()

	result, err := h.importService.ImportXLSX(file, sheetName)
	if err != nil {
		if errors.Is(err, utils.ErrHeaderMismatch) {
			utils.Error(c, 400, "HEADER_MISMATCH", "Header must contain PARENT_CATEGORY, CATEGORY_2LVL, CATEGORY_3LVL")
			return
		}
		utils.Error(c, 500, "IMPORT_FAILED", "Import failed; no rows were committed")
		return
	}

	utils.Success(c, 200, "Import finished", result)
}

// ResetDevice clears a user's device binding and revokes their tokens so
// they can rebind on the next login.
func (h *AdminHandler) ResetDevice(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid user id")
		return
	}

	if err := h.authService.ResetDevice(userID); err != nil {
		if errors.Is(err, utils.ErrUserNotFound) {
			utils.Error(c, 404, "USER_NOT_FOUND", "User not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Device reset failed")
		return
	}
	utils.Success(c, 200, "Device reset", nil)
}

// SetPaymentStatus marks a user as paid or not paid.
func (h *AdminHandler) SetPaymentStatus(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid user id")
		return
	}
	var req struct {
		Status models.PaymentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.Status != models.PaymentStatusPaid && req.Status != models.PaymentStatusNotPaid {
		utils.Error(c, 400, "INVALID_REQUEST", "Status must be 'paid' or 'not_paid'")
		return
	}

	if err := h.authService.SetPaymentStatus(userID, req.Status); err != nil {
		if errors.Is(err, utils.ErrUserNotFound) {
			utils.Error(c, 404, "USER_NOT_FOUND", "User not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Payment status update failed")
		return
	}
	utils.Success(c, 200, "Payment status updated", nil)
}
