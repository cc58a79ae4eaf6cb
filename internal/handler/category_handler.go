package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sellerstat/sellerstat_api/internal/service"
	"github.com/sellerstat/sellerstat_api/internal/utils"
)

// CategoryHandler handles category-tree HTTP endpoints.
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler constructs a CategoryHandler.
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

type categoryRequest struct {
	Name     string `json:"name" binding:"required"`
	Slug     string `json:"slug"`
	ParentID *int64 `json:"parentId"`
}

// GetTree returns root categories with children nested to the maximum depth.
func (h *CategoryHandler) GetTree(c *gin.Context) {
	tree, err := h.categoryService.Tree()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load categories")
		return
	}
	utils.Success(c, 200, "Categories retrieved successfully", gin.H{
		"categories": tree,
	})
}

// CreateCategory creates a category after hierarchy validation.
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	category, err := h.categoryService.Create(req.Name, req.Slug, req.ParentID)
	if err != nil {
		writeCategoryError(c, err)
		return
	}
	utils.Success(c, 201, "Category created", category)
}

// UpdateCategory renames or re-parents a category; the hierarchy is
// re-validated on every mutation.
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid category id")
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	category, err := h.categoryService.Update(id, req.Name, req.Slug, req.ParentID)
	if err != nil {
		writeCategoryError(c, err)
		return
	}
	utils.Success(c, 200, "Category updated", category)
}

// DeleteCategory removes a category and its descendants; categories still
// referenced by products are rejected with a conflict.
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid category id")
		return
	}

	if err := h.categoryService.Delete(id); err != nil {
		writeCategoryError(c, err)
		return
	}
	utils.Success(c, 200, "Category deleted", nil)
}

func writeCategoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrCategoryNotFound):
		utils.Error(c, 404, "CATEGORY_NOT_FOUND", "Category not found")
	case errors.Is(err, utils.ErrDepthExceeded):
		utils.Error(c, 400, "DEPTH_EXCEEDED", "Category depth cannot exceed 3 levels")
	case errors.Is(err, utils.ErrCycleDetected):
		utils.Error(c, 400, "CYCLE_DETECTED", "Category cannot be its own ancestor")
	case errors.Is(err, utils.ErrSlugTaken):
		utils.Error(c, 409, "SLUG_TAKEN", "A sibling category with this slug already exists")
	case errors.Is(err, utils.ErrCategoryInUse):
		utils.Error(c, 409, "CATEGORY_IN_USE", "Category is still referenced by products")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Category operation failed")
	}
}
