package service

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sellerstat/sellerstat_api/internal/models"
)

type fakeListingSource struct {
	rows []models.ListingRow
}

func (f *fakeListingSource) ListForAggregation(categoryID *int64) ([]models.ListingRow, error) {
	if categoryID == nil {
		return f.rows, nil
	}
	var out []models.ListingRow
	for _, r := range f.rows {
		if r.CategoryID == *categoryID {
			out = append(out, r)
		}
	}
	return out, nil
}

func int64Ptr(v int64) *int64 { return &v }

func sampleRows() []models.ListingRow {
	return []models.ListingRow{
		{ArticleID: "A1", MerchantName: "X", Name: "Boots", PhotoURL: "https://img/a1.jpg", CategoryID: 3, CategoryName: "Boots", ProductCount: 2, ProductOrders: 1, GMV: 100},
		{ArticleID: "A1", MerchantName: "Y", Name: "Boots", CategoryID: 3, CategoryName: "Boots", ProductCount: 3, ProductOrders: 2, GMV: 150},
		{ArticleID: "A2", MerchantName: "X", Name: "Kettle", CategoryID: 7, CategoryName: "Kitchen", ProductCount: 4, ProductOrders: 6, GMV: 900},
	}
}

func TestAggregateFoldsListingsPerArticle(t *testing.T) {
	svc := NewAggregationService(&fakeListingSource{rows: sampleRows()})

	out, err := svc.Aggregate(AggregationFilters{})
	require.NoError(t, err)
	require.Len(t, out, 2)

	a1 := out[0]
	assert.Equal(t, "A1", a1.ArticleID)
	assert.Equal(t, 2, a1.MerchantCount)
	assert.Equal(t, []string{"X", "Y"}, a1.MerchantNames)
	assert.Equal(t, int64(5), a1.ProductCount)
	assert.Equal(t, int64(3), a1.ProductOrders)
	assert.Equal(t, int64(250), a1.GMVSum)
	assert.InDelta(t, 50.0, a1.GMVEach, 0.0001)
	assert.Equal(t, "https://img/a1.jpg", a1.PhotoURL)

	a2 := out[1]
	assert.Equal(t, "A2", a2.ArticleID)
	assert.Equal(t, 1, a2.MerchantCount)
	assert.InDelta(t, 225.0, a2.GMVEach, 0.0001)
	assert.Equal(t, PlaceholderPhotoURL, a2.PhotoURL)
}

func TestAggregateZeroProductCount(t *testing.T) {
	svc := NewAggregationService(&fakeListingSource{rows: []models.ListingRow{
		{ArticleID: "A1", MerchantName: "X", Name: "Ghost", CategoryID: 1, CategoryName: "Misc", GMV: 500},
	}})

	out, err := svc.Aggregate(AggregationFilters{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(500), out[0].GMVSum)
	assert.Zero(t, out[0].GMVEach)
}

func TestAggregateFilters(t *testing.T) {
	svc := NewAggregationService(&fakeListingSource{rows: sampleRows()})

	tests := []struct {
		name     string
		filters  AggregationFilters
		articles []string
	}{
		{"merchant count lower bound inclusive", AggregationFilters{MinMerchantCount: int64Ptr(2)}, []string{"A1"}},
		{"merchant count upper bound inclusive", AggregationFilters{MaxMerchantCount: int64Ptr(1)}, []string{"A2"}},
		{"gmv range covers both", AggregationFilters{MinGMVSum: int64Ptr(250), MaxGMVSum: int64Ptr(900)}, []string{"A1", "A2"}},
		{"gmv exact bound", AggregationFilters{MinGMVSum: int64Ptr(250), MaxGMVSum: int64Ptr(250)}, []string{"A1"}},
		{"orders range excludes all", AggregationFilters{MinProductOrders: int64Ptr(10)}, nil},
		{"search matches product name", AggregationFilters{Search: "kett"}, []string{"A2"}},
		{"search matches category name", AggregationFilters{Search: "BOOTS"}, []string{"A1"}},
		{"category filter", AggregationFilters{CategoryID: int64Ptr(7)}, []string{"A2"}},
		{"search and range combined", AggregationFilters{Search: "boots", MinGMVSum: int64Ptr(300)}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := svc.Aggregate(tc.filters)
			require.NoError(t, err)
			got := make([]string, 0, len(out))
			for _, g := range out {
				got = append(got, g.ArticleID)
			}
			if tc.articles == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tc.articles, got)
			}
		})
	}
}

func TestPageFiltersBeforePaginating(t *testing.T) {
	rows := make([]models.ListingRow, 0, 10)
	for i := 1; i <= 10; i++ {
		rows = append(rows, models.ListingRow{
			ArticleID:    "ART-" + strconv.Itoa(i),
			MerchantName: "M",
			Name:         "Item",
			CategoryID:   1,
			CategoryName: "Misc",
			ProductCount: 1,
			GMV:          int64(i * 100),
		})
	}
	svc := NewAggregationService(&fakeListingSource{rows: rows})

	// 6 articles pass the filter (500..1000); page 2 of size 4 holds the
	// last 2 of them, not a slice of the unfiltered set.
	page, total, err := svc.Page(AggregationFilters{MinGMVSum: int64Ptr(500)}, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, page, 2)

	// Page past the end is empty, total unchanged.
	page, total, err = svc.Page(AggregationFilters{MinGMVSum: int64Ptr(500)}, 5, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Empty(t, page)
}

func TestPageClampsLimit(t *testing.T) {
	svc := NewAggregationService(&fakeListingSource{rows: sampleRows()})

	page, total, err := svc.Page(AggregationFilters{}, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, page, 2)
}

func TestExportXLSXRoundTrip(t *testing.T) {
	svc := NewAggregationService(&fakeListingSource{rows: sampleRows()})

	buf, filename, err := svc.ExportXLSX(AggregationFilters{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "products_aggregated_"))
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Products")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])

	// Row contents mirror the list endpoint.
	assert.Equal(t, "A1", rows[1][3])
	assert.Equal(t, "2", rows[1][4])
	assert.Equal(t, "X, Y", rows[1][5])
	assert.Equal(t, "250", rows[1][8])

	gmvEach, err := strconv.ParseFloat(rows[1][9], 64)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, gmvEach, 0.0001)

	assert.Equal(t, "A2", rows[2][3])
	assert.Equal(t, PlaceholderPhotoURL, rows[2][0])
}
