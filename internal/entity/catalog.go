package entity

import "github.com/uptrace/bun"

// Category groups products on the menu.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
	Timestamps
}

// Product is a sellable menu item. Prices are minor currency units.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description" json:"description"`
	Price       int64  `bun:"price,notnull" json:"price"`
	IsGram      bool   `bun:"is_gram,notnull" json:"is_gram"`
	CategoryID  int64  `bun:"category_id,notnull" json:"category_id"`
	Timestamps

	Category *Category        `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	Variants []*ProductVariant `bun:"rel:has-many,join:id=product_id" json:"variants,omitempty"`
}

// ProductVariant overrides the parent product price when ordered.
type ProductVariant struct {
	bun.BaseModel `bun:"table:product_variants,alias:pv"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	ProductID   int64  `bun:"product_id,notnull" json:"product_id"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description" json:"description"`
	Price       int64  `bun:"price,notnull" json:"price"`
	IsDeleted   bool   `bun:"is_deleted,notnull" json:"is_deleted"`
	Timestamps
}

// Buffet is a flat per-person menu.
type Buffet struct {
	bun.BaseModel `bun:"table:buffets,alias:bf"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description" json:"description"`
	Price       int64  `bun:"price,notnull" json:"price"`
	IsDeleted   bool   `bun:"is_deleted,notnull" json:"is_deleted"`
	Timestamps
}
