package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order statuses. Completed and cancelled are terminal.
const (
	OrderPending   = "pending"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

// Order is a table's purchase record, item based or a flat buffet rate.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID              int64      `bun:"id,pk,autoincrement" json:"id"`
	UUID            string     `bun:"uuid,notnull,unique" json:"uuid"`
	UserID          int64      `bun:"user_id,notnull" json:"user_id"`
	TableID         int64      `bun:"table_id,notnull" json:"table_id"`
	Status          string     `bun:"status,notnull" json:"status"`
	IsBuffet        bool       `bun:"is_buffet,notnull" json:"is_buffet"`
	BuffetID        *int64     `bun:"buffet_id" json:"buffet_id"`
	PeopleCount     int        `bun:"people_count,notnull" json:"people_count"`
	Tax             int64      `bun:"tax,notnull" json:"tax"`
	TotalAmount     int64      `bun:"total_amount,notnull" json:"total_amount"`
	GrandTotal      int64      `bun:"grand_total,notnull" json:"grand_total"`
	PaymentMethodID *int64     `bun:"payment_method_id" json:"payment_method_id"`
	Version         int64      `bun:"version,notnull" json:"version"`
	CompletedAt     *time.Time `bun:"completed_at" json:"completed_at"`
	CancelledAt     *time.Time `bun:"cancelled_at" json:"cancelled_at"`
	Timestamps

	Items         []*OrderItem   `bun:"rel:has-many,join:id=order_id" json:"order_items,omitempty"`
	Table         *Table         `bun:"rel:belongs-to,join:table_id=id" json:"table,omitempty"`
	Buffet        *Buffet        `bun:"rel:belongs-to,join:buffet_id=id" json:"buffet,omitempty"`
	PaymentMethod *PaymentMethod `bun:"rel:belongs-to,join:payment_method_id=id" json:"payment_method,omitempty"`
}

// IsPending reports whether the order still accepts changes.
func (o *Order) IsPending() bool {
	return o != nil && o.Status == OrderPending
}

// OrderItem is a product line captured with its price at the time it was added.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	OrderID   int64     `bun:"order_id,notnull" json:"order_id"`
	ProductID int64     `bun:"product_id,notnull" json:"product_id"`
	VariantID *int64    `bun:"variant_id" json:"variant_id"`
	Quantity  int       `bun:"quantity,notnull" json:"quantity"`
	UnitPrice int64     `bun:"unit_price,notnull" json:"unit_price"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`

	Product *Product        `bun:"rel:belongs-to,join:product_id=id" json:"product,omitempty"`
	Variant *ProductVariant `bun:"rel:belongs-to,join:variant_id=id" json:"variant,omitempty"`
}

// Subtotal is the line amount.
func (i *OrderItem) Subtotal() (int64, error) {
	return MulAmount(i.UnitPrice, i.Quantity)
}

// Models lists every persisted model, in creation order.
func Models() []any {
	return []any{
		(*User)(nil),
		(*Table)(nil),
		(*Category)(nil),
		(*Product)(nil),
		(*ProductVariant)(nil),
		(*Buffet)(nil),
		(*PaymentMethod)(nil),
		(*Expense)(nil),
		(*Reservation)(nil),
		(*Order)(nil),
		(*OrderItem)(nil),
	}
}
