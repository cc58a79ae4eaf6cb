package service

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/sellerstat/sellerstat_api/internal/models"
)

// Pagination bounds for the aggregated report.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// PlaceholderPhotoURL is used for article groups whose listings carry no photo.
const PlaceholderPhotoURL = "https://static.sellerstat.io/img/no-photo.png"

// exportHeaders is the fixed first row of the XLSX export.
var exportHeaders = []string{
	"photo_url", "name", "category_name", "article_id", "merchant_count",
	"merchant_names", "product_count", "product_orders", "gmv_sum", "gmv_each",
}

// ListingSource is the read side the aggregation engine consumes.
// Implemented by repository.ProductRepository.
type ListingSource interface {
	ListForAggregation(categoryID *int64) ([]models.ListingRow, error)
}

// AggregationFilters carries the optional per-request filter parameters.
// Range bounds are inclusive; nil means the bound is absent.
type AggregationFilters struct {
	CategoryID       *int64
	Search           string
	MinMerchantCount *int64
	MaxMerchantCount *int64
	MinProductOrders *int64
	MaxProductOrders *int64
	MinGMVSum        *int64
	MaxGMVSum        *int64
}

// AggregationService folds raw merchant listings into one row per article id
// and applies the dynamic filter chain.
type AggregationService struct {
	source ListingSource
}

// NewAggregationService constructs an AggregationService.
func NewAggregationService(source ListingSource) *AggregationService {
	return &AggregationService{source: source}
}

// Aggregate returns the full filtered, finalized report. Output is ordered
// by article id so pagination over it is stable.
func (s *AggregationService) Aggregate(filters AggregationFilters) ([]models.AggregatedProduct, error) {
	rows, err := s.source.ListForAggregation(filters.CategoryID)
	if err != nil {
		return nil, err
	}

	groups := aggregateRows(rows)
	predicates := buildPredicates(filters)

	out := make([]models.AggregatedProduct, 0, len(groups))
	for _, g := range groups {
		if matchesAll(g, predicates) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArticleID < out[j].ArticleID })

	log.Debug().Int("rows", len(rows)).Int("groups", len(groups)).Int("matched", len(out)).Msg("aggregation pass")
	return out, nil
}

// Page runs the full aggregation and filter pipeline, then slices one page
// out of the materialized result. Filtering always happens before
// pagination. Returns the page and the total filtered count.
func (s *AggregationService) Page(filters AggregationFilters, page, limit int) ([]models.AggregatedProduct, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	all, err := s.Aggregate(filters)
	if err != nil {
		return nil, 0, err
	}

	total := len(all)
	start := (page - 1) * limit
	if start >= total {
		return []models.AggregatedProduct{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// ExportXLSX renders the same filtered report as a spreadsheet. Merchant
// names collapse into one ", "-joined cell and gmv_each is rounded to four
// decimals. The filename is stamped with the UTC generation time.
func (s *AggregationService) ExportXLSX(filters AggregationFilters) (*bytes.Buffer, string, error) {
	all, err := s.Aggregate(filters)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Products"
	f.SetSheetName("Sheet1", sheet)

	if err := f.SetSheetRow(sheet, "A1", &exportHeaders); err != nil {
		return nil, "", err
	}
	for i, row := range all {
		gmvEach, _ := strconv.ParseFloat(fmt.Sprintf("%.4f", row.GMVEach), 64)
		cells := []interface{}{
			row.PhotoURL,
			row.Name,
			row.CategoryName,
			row.ArticleID,
			row.MerchantCount,
			strings.Join(row.MerchantNames, ", "),
			row.ProductCount,
			row.ProductOrders,
			row.GMVSum,
			gmvEach,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("products_aggregated_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	return buf, filename, nil
}

// aggregateRows folds listings into per-article groups. The first listing of
// an article seeds the group metadata; every listing contributes its
// merchant name and sums.
func aggregateRows(rows []models.ListingRow) map[string]*models.AggregatedProduct {
	groups := make(map[string]*models.AggregatedProduct)
	merchants := make(map[string]map[string]bool)

	for _, row := range rows {
		g, ok := groups[row.ArticleID]
		if !ok {
			photo := row.PhotoURL
			if photo == "" {
				photo = PlaceholderPhotoURL
			}
			g = &models.AggregatedProduct{
				ArticleID:    row.ArticleID,
				PhotoURL:     photo,
				Name:         row.Name,
				CategoryID:   row.CategoryID,
				CategoryName: row.CategoryName,
			}
			groups[row.ArticleID] = g
			merchants[row.ArticleID] = make(map[string]bool)
		}
		merchants[row.ArticleID][row.MerchantName] = true
		g.ProductCount += row.ProductCount
		g.ProductOrders += row.ProductOrders
		g.GMVSum += row.GMV
	}

	// Finalize: merchant cardinality, sorted names, per-unit GMV.
	for articleID, g := range groups {
		names := make([]string, 0, len(merchants[articleID]))
		for name := range merchants[articleID] {
			names = append(names, name)
		}
		sort.Strings(names)
		g.MerchantNames = names
		g.MerchantCount = len(names)
		if g.ProductCount > 0 {
			g.GMVEach = float64(g.GMVSum) / float64(g.ProductCount)
		}
	}
	return groups
}

// buildPredicates assembles the filter chain from whichever parameters are
// present. Order is fixed: range filters first, text search last.
func buildPredicates(f AggregationFilters) []func(*models.AggregatedProduct) bool {
	var predicates []func(*models.AggregatedProduct) bool

	addRange := func(min, max *int64, value func(*models.AggregatedProduct) int64) {
		if min != nil {
			lo := *min
			predicates = append(predicates, func(g *models.AggregatedProduct) bool { return value(g) >= lo })
		}
		if max != nil {
			hi := *max
			predicates = append(predicates, func(g *models.AggregatedProduct) bool { return value(g) <= hi })
		}
	}

	addRange(f.MinMerchantCount, f.MaxMerchantCount, func(g *models.AggregatedProduct) int64 { return int64(g.MerchantCount) })
	addRange(f.MinProductOrders, f.MaxProductOrders, func(g *models.AggregatedProduct) int64 { return g.ProductOrders })
	addRange(f.MinGMVSum, f.MaxGMVSum, func(g *models.AggregatedProduct) int64 { return g.GMVSum })

	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		predicates = append(predicates, func(g *models.AggregatedProduct) bool {
			return strings.Contains(strings.ToLower(g.Name), needle) ||
				strings.Contains(strings.ToLower(g.CategoryName), needle)
		})
	}
	return predicates
}

func matchesAll(g *models.AggregatedProduct, predicates []func(*models.AggregatedProduct) bool) bool {
	for _, p := range predicates {
		if !p(g) {
			return false
		}
	}
	return true
}
