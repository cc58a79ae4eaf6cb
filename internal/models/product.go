package models

import "time"

// Product is a single merchant listing of an article. Several merchants can
// list the same article; (article_id, merchant_name) pairs are unique.
type Product struct {
	ID            int64     `db:"id" json:"id"`
	CategoryID    int64     `db:"category_id" json:"categoryId"`
	ArticleID     string    `db:"article_id" json:"articleId"`
	MerchantName  string    `db:"merchant_name" json:"merchantName"`
	Name          string    `db:"name" json:"name"`
	PhotoURL      string    `db:"photo_url" json:"photoUrl"`
	ProductCount  int64     `db:"product_count" json:"productCount"`
	ProductOrders int64     `db:"product_orders" json:"productOrders"`
	GMV           int64     `db:"gmv" json:"gmv"`
	CreatedAt     time.Time `db:"created_at" json:"-"`
	UpdatedAt     time.Time `db:"updated_at" json:"-"`
}

// ListingRow is the projection the aggregation pass reads: one row per
// merchant listing joined with its category name.
type ListingRow struct {
	ArticleID     string `db:"article_id"`
	MerchantName  string `db:"merchant_name"`
	Name          string `db:"name"`
	PhotoURL      string `db:"photo_url"`
	CategoryID    int64  `db:"category_id"`
	CategoryName  string `db:"category_name"`
	ProductCount  int64  `db:"product_count"`
	ProductOrders int64  `db:"product_orders"`
	GMV           int64  `db:"gmv"`
}

// AggregatedProduct is one output row of the aggregation engine: all
// listings of one article folded together.
type AggregatedProduct struct {
	ArticleID     string   `json:"articleId"`
	PhotoURL      string   `json:"photoUrl"`
	Name          string   `json:"name"`
	CategoryID    int64    `json:"categoryId"`
	CategoryName  string   `json:"categoryName"`
	MerchantCount int      `json:"merchantCount"`
	MerchantNames []string `json:"merchantNames"`
	ProductCount  int64    `json:"productCount"`
	ProductOrders int64    `json:"productOrders"`
	GMVSum        int64    `json:"gmvSum"`
	GMVEach       float64  `json:"gmvEach"`
}
