package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/entity"
	catalogrepo "github.com/Additional-Code/bistro/internal/repository/catalog"
	"github.com/Additional-Code/bistro/internal/repository/crud"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

// priceItems resolves each requested line to its current unit price and returns
// the items with the sum of their subtotals. A variant price overrides the
// product price; missing products and foreign or deleted variants are not found.
func priceItems(ctx context.Context, catalog *catalogrepo.Repository, lines []dto.OrderItemRequest, at time.Time) ([]*entity.OrderItem, int64, error) {
	products := make(map[int64]*entity.Product, len(lines))
	items := make([]*entity.OrderItem, 0, len(lines))
	var total int64

	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			var err error
			product, err = catalog.Products.Get(ctx, line.ProductID)
			if errors.Is(err, crud.ErrNotFound) {
				return nil, 0, errorbank.NotFound(fmt.Sprintf("product %d not found", line.ProductID))
			}
			if err != nil {
				return nil, 0, errorbank.Internal("failed to load product", errorbank.WithCause(err))
			}
			products[line.ProductID] = product
		}

		price := product.Price
		if line.VariantID != nil {
			variant, err := catalog.Variants.Get(ctx, *line.VariantID)
			if err != nil && !errors.Is(err, crud.ErrNotFound) {
				return nil, 0, errorbank.Internal("failed to load variant", errorbank.WithCause(err))
			}
			if variant == nil || variant.ProductID != product.ID {
				return nil, 0, errorbank.NotFound(fmt.Sprintf("variant %d not found for product %d", *line.VariantID, product.ID))
			}
			price = variant.Price
		}

		item := &entity.OrderItem{
			ProductID: product.ID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: price,
			CreatedAt: at,
		}
		subtotal, err := item.Subtotal()
		if err != nil {
			return nil, 0, amountError("order_items")
		}
		if total, err = entity.AddAmount(total, subtotal); err != nil {
			return nil, 0, amountError("order_items")
		}
		items = append(items, item)
	}
	return items, total, nil
}

// amountError reports money arithmetic that left the supported range as a
// validation failure on field.
func amountError(field string) error {
	return errorbank.BadRequest("order total out of range", errorbank.WithFields(map[string]string{
		field: "order total would exceed the allowed amount",
	}))
}
