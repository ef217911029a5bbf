package dto

// OrderItemRequest references a product, optionally a variant of it, and a quantity.
type OrderItemRequest struct {
	ProductID int64  `json:"product_id" validate:"gt=0"`
	VariantID *int64 `json:"variant_id" validate:"omitnil,gt=0"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=10000"`
}

// CreateOrderRequest opens an item based order on a table.
type CreateOrderRequest struct {
	TableID    int64              `json:"table_id" validate:"gt=0"`
	Tax        int64              `json:"tax" validate:"gte=0,lte=100000000000000"`
	OrderItems []OrderItemRequest `json:"order_items" validate:"required,min=1,dive"`
}

// CreateBuffetOrderRequest opens a flat rate buffet order on a table.
// The buffet price is always read from the stored buffet.
type CreateBuffetOrderRequest struct {
	TableID     int64 `json:"table_id" validate:"gt=0"`
	BuffetID    int64 `json:"buffet_id" validate:"gt=0"`
	PeopleCount int   `json:"people_count" validate:"gte=1,lte=10000"`
	Tax         int64 `json:"tax" validate:"gte=0,lte=100000000000000"`
}

// AddOrderItemsRequest appends items to a pending order.
type AddOrderItemsRequest struct {
	AdditionalItems []OrderItemRequest `json:"additional_items" validate:"required,min=1,dive"`
}

// CheckoutOrderRequest completes a pending order.
type CheckoutOrderRequest struct {
	PaymentMethodID *int64 `json:"payment_method_id" validate:"omitnil,gt=0"`
}
