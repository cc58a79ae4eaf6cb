package models

import "time"

// MaxCategoryDepth is the deepest level a category may occupy (root = 1).
const MaxCategoryDepth = 3

// Category is a node in the self-referential category tree.
// ParentID is nil for root categories.
type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	ParentID  *int64    `db:"parent_id" json:"parentId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// CategoryNode is a category with its eagerly loaded children, used by the
// tree endpoint. Level is computed, never stored.
type CategoryNode struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Level    int             `json:"level"`
	Children []*CategoryNode `json:"children"`
}
