package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sellerstat/sellerstat_api/internal/models"
	"github.com/sellerstat/sellerstat_api/internal/utils"
)

// CategoryRepository handles data access for categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetAll returns every category. The tree is assembled in memory by the
// service so the endpoint costs a single query.
func (r *CategoryRepository) GetAll() ([]models.Category, error) {
	const q = `SELECT * FROM categories ORDER BY parent_id NULLS FIRST, name`

	var categories []models.Category
	if err := r.db.Select(&categories, q); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetByID returns a single category by id.
func (r *CategoryRepository) GetByID(id int64) (*models.Category, error) {
	const q = `SELECT * FROM categories WHERE id = $1 LIMIT 1`

	var c models.Category
	if err := r.db.Get(&c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new category row. A sibling slug collision surfaces as
// ErrSlugTaken.
func (r *CategoryRepository) Create(c *models.Category) error {
	const q = `
        INSERT INTO categories (name, slug, parent_id)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRowx(q, c.Name, c.Slug, c.ParentID).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapCategoryConstraint(err)
}

// Update rewrites name, slug and parent of an existing category.
func (r *CategoryRepository) Update(c *models.Category) error {
	const q = `
        UPDATE categories SET
            name = $2,
            slug = $3,
            parent_id = $4,
            updated_at = NOW()
        WHERE id = $1`

	res, err := r.db.Exec(q, c.ID, c.Name, c.Slug, c.ParentID)
	if err != nil {
		return mapCategoryConstraint(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrCategoryNotFound
	}
	return nil
}

// Delete removes a category. Children are cascaded by the schema; any
// product still referencing the category or one of its descendants blocks
// the whole delete, which surfaces as ErrCategoryInUse.
func (r *CategoryRepository) Delete(id int64) error {
	const q = `DELETE FROM categories WHERE id = $1`

	res, err := r.db.Exec(q, id)
	if err != nil {
		return mapCategoryConstraint(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrCategoryNotFound
	}
	return nil
}

// mapCategoryConstraint translates PostgreSQL constraint violations into
// domain errors.
func mapCategoryConstraint(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation on (parent_id, slug)
			return utils.ErrSlugTaken
		case "23503": // foreign_key_violation from products ON DELETE RESTRICT
			return utils.ErrCategoryInUse
		}
	}
	return err
}

// GetOrCreateCategory finds a category by (parent, slug) or inserts it with
// the given name. Runs against either the pool or an open transaction, so
// the importer can batch its upserts atomically. Reports whether a row was
// created.
func GetOrCreateCategory(q sqlx.Ext, parentID *int64, slug, name string) (int64, bool, error) {
	const sel = `
        SELECT id FROM categories
        WHERE slug = $1 AND parent_id IS NOT DISTINCT FROM $2
        LIMIT 1`

	var id int64
	err := sqlx.Get(q, &id, sel, slug, parentID)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	const ins = `
        INSERT INTO categories (name, slug, parent_id)
        VALUES ($1, $2, $3)
        RETURNING id`

	if err := sqlx.Get(q, &id, ins, name, slug, parentID); err != nil {
		return 0, false, mapCategoryConstraint(err)
	}
	return id, true, nil
}
