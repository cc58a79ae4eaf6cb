package repository

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sellerstat/sellerstat_api/internal/models"
)

// ErrDuplicateListing is returned when an (article_id, merchant_name) pair
// already exists.
var ErrDuplicateListing = errors.New("DUPLICATE_LISTING")

// ProductRepository handles data access for merchant listings.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListForAggregation streams the listing rows the aggregation engine needs,
// joined with their category name. When categoryID is nil no category filter
// is applied. Only aggregation columns are projected.
func (r *ProductRepository) ListForAggregation(categoryID *int64) ([]models.ListingRow, error) {
	const q = `
        SELECT
            p.article_id, p.merchant_name, p.name, p.photo_url,
            p.category_id, c.name AS category_name,
            p.product_count, p.product_orders, p.gmv
        FROM products p
        JOIN categories c ON c.id = p.category_id
        WHERE ($1::bigint IS NULL OR p.category_id = $1)
        ORDER BY p.article_id, p.merchant_name`

	var rows []models.ListingRow
	if err := r.db.Select(&rows, q, categoryID); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListingExists reports whether an (article_id, merchant_name) pair is
// already stored. Runs against either the pool or an open transaction.
func ListingExists(q sqlx.Ext, articleID, merchantName string) (bool, error) {
	const sel = `SELECT EXISTS (SELECT 1 FROM products WHERE article_id = $1 AND merchant_name = $2)`

	var exists bool
	if err := sqlx.Get(q, &exists, sel, articleID, merchantName); err != nil {
		return false, err
	}
	return exists, nil
}

// InsertListing inserts one merchant listing. Duplicate
// (article_id, merchant_name) pairs surface as ErrDuplicateListing.
func InsertListing(q sqlx.Ext, p *models.Product) error {
	const ins = `
        INSERT INTO products (category_id, article_id, merchant_name, name, photo_url, product_count, product_orders, gmv)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`

	err := sqlx.Get(q, &p.ID, ins,
		p.CategoryID, p.ArticleID, p.MerchantName, p.Name, p.PhotoURL,
		p.ProductCount, p.ProductOrders, p.GMV,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateListing
	}
	return err
}
