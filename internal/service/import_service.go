package service

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/sellerstat/sellerstat_api/internal/models"
	"github.com/sellerstat/sellerstat_api/internal/repository"
	"github.com/sellerstat/sellerstat_api/internal/utils"
)

// MaxImportRows bounds how many data rows one import invocation processes.
// Rows beyond the bound are not processed; the result carries a truncation
// flag so the caller knows the import was partial.
const MaxImportRows = 10000

// Column labels of the import sheet. The category columns are always
// required; the product columns are required only for listing imports.
const (
	colParentCategory = "PARENT_CATEGORY"
	colCategory2Lvl   = "CATEGORY_2LVL"
	colCategory3Lvl   = "CATEGORY_3LVL"
	colArticleID      = "ARTICLE_ID"
	colMerchantName   = "MERCHANT_NAME"
	colProductName    = "PRODUCT_NAME"
	colPhotoURL       = "PHOTO_URL"
	colProductCount   = "PRODUCT_COUNT"
	colProductOrders  = "PRODUCT_ORDERS"
	colGMV            = "GMV"
)

var (
	categoryColumns = []string{colParentCategory, colCategory2Lvl, colCategory3Lvl}
	productColumns  = []string{colArticleID, colMerchantName, colProductName, colPhotoURL, colProductCount, colProductOrders, colGMV}
)

// ImportResult summarizes one import invocation.
type ImportResult struct {
	CategoriesCreated int  `json:"categoriesCreated"`
	ListingsCreated   int  `json:"listingsCreated"`
	RowsProcessed     int  `json:"rowsProcessed"`
	Truncated         bool `json:"truncated"`
}

// catalogWriter is the persistence surface the row-application loop writes
// through. The production implementation wraps one open transaction; tests
// substitute an in-memory fake.
type catalogWriter interface {
	getOrCreateCategory(parentID *int64, slugValue, name string) (int64, bool, error)
	listingExists(articleID, merchantName string) (bool, error)
	insertListing(p *models.Product) error
}

// ImportService reads tabular catalog uploads and upserts category chains
// and merchant listings inside a single transaction per invocation.
type ImportService struct {
	db *sqlx.DB
}

// NewImportService constructs an ImportService.
func NewImportService(db *sqlx.DB) *ImportService {
	return &ImportService{db: db}
}

// ImportXLSX processes a binary spreadsheet stream. sheetName selects the
// worksheet; empty means the first sheet. Every upsert of the invocation
// runs in one transaction — a failure partway rolls back all of it.
func (s *ImportService) ImportXLSX(r io.Reader, sheetName string) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("cannot open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("cannot read sheet %q: %w", sheetName, err)
	}

	cols, hasProducts, err := parseHeader(rows)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}

	result, err := applyRows(rows[1:], cols, hasProducts, &txCatalogWriter{tx: tx})
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info().
		Int("categories_created", result.CategoriesCreated).
		Int("listings_created", result.ListingsCreated).
		Int("rows", result.RowsProcessed).
		Bool("truncated", result.Truncated).
		Msg("import finished")
	return result, nil
}

// parseHeader validates the first row and returns a label→index map. Fails
// with ErrHeaderMismatch before any data row is touched when a required
// category column is missing. hasProducts reports whether the sheet also
// carries the full set of product columns.
func parseHeader(rows [][]string) (map[string]int, bool, error) {
	if len(rows) == 0 {
		return nil, false, utils.ErrHeaderMismatch
	}

	cols := make(map[string]int, len(rows[0]))
	for i, label := range rows[0] {
		cols[strings.TrimSpace(label)] = i
	}
	for _, required := range categoryColumns {
		if _, ok := cols[required]; !ok {
			return nil, false, utils.ErrHeaderMismatch
		}
	}

	hasProducts := true
	for _, label := range productColumns {
		if _, ok := cols[label]; !ok {
			hasProducts = false
			break
		}
	}
	return cols, hasProducts, nil
}

// applyRows walks the data rows and performs the get-or-create chain for
// categories plus, when the sheet carries product columns, listing inserts.
func applyRows(dataRows [][]string, cols map[string]int, hasProducts bool, w catalogWriter) (*ImportResult, error) {
	result := &ImportResult{}

	for _, row := range dataRows {
		if result.RowsProcessed >= MaxImportRows {
			result.Truncated = true
			break
		}
		result.RowsProcessed++

		lvl1 := cellValue(row, cols, colParentCategory)
		if lvl1 == "" || lvl1 == colParentCategory {
			// Empty top-level category skips the row; so does a repeated
			// header row.
			continue
		}
		lvl2 := cellValue(row, cols, colCategory2Lvl)
		lvl3 := cellValue(row, cols, colCategory3Lvl)

		rootID, created, err := w.getOrCreateCategory(nil, slug.Make(lvl1), lvl1)
		if err != nil {
			return nil, err
		}
		if created {
			result.CategoriesCreated++
		}
		deepest := rootID

		var lvl2ID *int64
		if lvl2 != "" {
			id, created, err := w.getOrCreateCategory(&rootID, slug.Make(lvl2), lvl2)
			if err != nil {
				return nil, err
			}
			if created {
				result.CategoriesCreated++
			}
			lvl2ID = &id
			deepest = id
		}

		// Level 3 exists only under a level 2.
		if lvl3 != "" && lvl2ID != nil {
			id, created, err := w.getOrCreateCategory(lvl2ID, slug.Make(lvl3), lvl3)
			if err != nil {
				return nil, err
			}
			if created {
				result.CategoriesCreated++
			}
			deepest = id
		}

		if !hasProducts {
			continue
		}
		articleID := cellValue(row, cols, colArticleID)
		merchantName := cellValue(row, cols, colMerchantName)
		if articleID == "" || merchantName == "" {
			continue
		}
		exists, err := w.listingExists(articleID, merchantName)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		if err := w.insertListing(&models.Product{
			CategoryID:    deepest,
			ArticleID:     articleID,
			MerchantName:  merchantName,
			Name:          cellValue(row, cols, colProductName),
			PhotoURL:      cellValue(row, cols, colPhotoURL),
			ProductCount:  cellInt(row, cols, colProductCount),
			ProductOrders: cellInt(row, cols, colProductOrders),
			GMV:           cellInt(row, cols, colGMV),
		}); err != nil {
			return nil, err
		}
		result.ListingsCreated++
	}
	return result, nil
}

// cellValue returns the trimmed cell under the given column label, or ""
// when the row is shorter than the header.
func cellValue(row []string, cols map[string]int, label string) string {
	idx, ok := cols[label]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// cellInt parses a numeric cell, treating absent or malformed values as
// zero. Spreadsheet numerics may render as floats ("12.0").
func cellInt(row []string, cols map[string]int, label string) int64 {
	raw := cellValue(row, cols, label)
	if raw == "" {
		return 0
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if fl, err := strconv.ParseFloat(raw, 64); err == nil {
		return int64(fl)
	}
	return 0
}

// txCatalogWriter applies catalog writes through one open transaction.
type txCatalogWriter struct {
	tx *sqlx.Tx
}

func (w *txCatalogWriter) getOrCreateCategory(parentID *int64, slugValue, name string) (int64, bool, error) {
	return repository.GetOrCreateCategory(w.tx, parentID, slugValue, name)
}

func (w *txCatalogWriter) listingExists(articleID, merchantName string) (bool, error) {
	return repository.ListingExists(w.tx, articleID, merchantName)
}

func (w *txCatalogWriter) insertListing(p *models.Product) error {
	return repository.InsertListing(w.tx, p)
}
