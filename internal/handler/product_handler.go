package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sellerstat/sellerstat_api/internal/service"
	"github.com/sellerstat/sellerstat_api/internal/utils"
)

// ProductHandler serves the aggregated product report and its XLSX export.
type ProductHandler struct {
	aggregationService *service.AggregationService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(aggregationService *service.AggregationService) *ProductHandler {
	return &ProductHandler{aggregationService: aggregationService}
}

// GetAggregatedProducts returns the paginated per-article report. All range
// filters are inclusive; filtering happens before pagination.
func (h *ProductHandler) GetAggregatedProducts(c *gin.Context) {
	filters, err := parseAggregationFilters(c)
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}

	page := 1
	limit := service.DefaultPageSize
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > service.MaxPageSize {
		limit = service.MaxPageSize
	}

	products, total, err := h.aggregationService.Page(*filters, page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to aggregate products")
		return
	}

	utils.SuccessWithPagination(c, 200, "Products retrieved successfully", gin.H{
		"products": products,
	}, page, limit, total)
}

// ExportAggregatedProducts streams the same filtered report as an XLSX
// attachment.
func (h *ProductHandler) ExportAggregatedProducts(c *gin.Context) {
	filters, err := parseAggregationFilters(c)
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}

	buf, filename, err := h.aggregationService.ExportXLSX(*filters)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to export products")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// parseAggregationFilters reads the optional filter query parameters shared
// by the JSON listing and the export.
func parseAggregationFilters(c *gin.Context) (*service.AggregationFilters, error) {
	filters := &service.AggregationFilters{
		Search: c.Query("search"),
	}

	var err error
	if filters.CategoryID, err = queryInt64(c, "category_id"); err != nil {
		return nil, err
	}
	if filters.MinMerchantCount, err = queryInt64(c, "min_merchant_count"); err != nil {
		return nil, err
	}
	if filters.MaxMerchantCount, err = queryInt64(c, "max_merchant_count"); err != nil {
		return nil, err
	}
	if filters.MinProductOrders, err = queryInt64(c, "min_product_orders"); err != nil {
		return nil, err
	}
	if filters.MaxProductOrders, err = queryInt64(c, "max_product_orders"); err != nil {
		return nil, err
	}
	if filters.MinGMVSum, err = queryInt64(c, "min_gmv_sum"); err != nil {
		return nil, err
	}
	if filters.MaxGMVSum, err = queryInt64(c, "max_gmv_sum"); err != nil {
		return nil, err
	}
	return filters, nil
}

// queryInt64 parses an optional integer query parameter, returning nil when
// the parameter is absent.
func queryInt64(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: must be an integer", name)
	}
	return &n, nil
}
