package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterContext(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/v1/products?"+query, nil)
	return c
}

func TestParseAggregationFilters(t *testing.T) {
	c := filterContext(t, "category_id=3&search=boots&min_merchant_count=2&max_gmv_sum=900")

	filters, err := parseAggregationFilters(c)
	require.NoError(t, err)

	require.NotNil(t, filters.CategoryID)
	assert.Equal(t, int64(3), *filters.CategoryID)
	assert.Equal(t, "boots", filters.Search)
	require.NotNil(t, filters.MinMerchantCount)
	assert.Equal(t, int64(2), *filters.MinMerchantCount)
	assert.Nil(t, filters.MaxMerchantCount)
	assert.Nil(t, filters.MinGMVSum)
	require.NotNil(t, filters.MaxGMVSum)
	assert.Equal(t, int64(900), *filters.MaxGMVSum)
}

func TestParseAggregationFiltersEmpty(t *testing.T) {
	filters, err := parseAggregationFilters(filterContext(t, ""))
	require.NoError(t, err)
	assert.Nil(t, filters.CategoryID)
	assert.Empty(t, filters.Search)
}

func TestParseAggregationFiltersInvalid(t *testing.T) {
	_, err := parseAggregationFilters(filterContext(t, "min_gmv_sum=abc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_gmv_sum")
}
