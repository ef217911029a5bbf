package catalog

import (
	"github.com/uptrace/bun"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/repository/crud"
)

// Repository groups the menu stores: categories, products, variants and buffets.
type Repository struct {
	Categories *crud.Store[entity.Category]
	Products   *crud.Store[entity.Product]
	Variants   *crud.Store[entity.ProductVariant]
	Buffets    *crud.Store[entity.Buffet]
}

// NewRepository wires the catalog stores with their deletion modes.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		Categories: crud.NewStore[entity.Category]("Category", crud.HardDelete, conns),
		Products:   crud.NewStore[entity.Product]("Product", crud.HardDelete, conns),
		Variants:   crud.NewStore[entity.ProductVariant]("ProductVariant", crud.SoftDelete, conns),
		Buffets:    crud.NewStore[entity.Buffet]("Buffet", crud.SoftDelete, conns),
	}
}

// WithTx binds every store to db.
func (r *Repository) WithTx(db bun.IDB) *Repository {
	return &Repository{
		Categories: r.Categories.WithTx(db),
		Products:   r.Products.WithTx(db),
		Variants:   r.Variants.WithTx(db),
		Buffets:    r.Buffets.WithTx(db),
	}
}

// ProductDetails joins the category and the live variants of a product.
func ProductDetails() []crud.QueryOption {
	return []crud.QueryOption{
		crud.WithRelation("Category"),
		crud.WithRelation("Variants", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("pv.is_deleted = ?", false).OrderExpr("pv.id ASC")
		}),
	}
}
