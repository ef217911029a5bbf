package entity

import "github.com/uptrace/bun"

// PaymentMethod is a way of settling an order, shown with an uploaded image.
type PaymentMethod struct {
	bun.BaseModel `bun:"table:payment_methods,alias:pm"`

	ID    int64  `bun:"id,pk,autoincrement" json:"id"`
	Name  string `bun:"name,notnull,unique" json:"name"`
	Image string `bun:"image,notnull" json:"image"`
	Timestamps
}

// Expense is money spent by a user, recorded for the monthly summary.
type Expense struct {
	bun.BaseModel `bun:"table:expenses,alias:e"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	UserID   int64  `bun:"user_id,notnull" json:"user_id"`
	Title    string `bun:"title,notnull" json:"title"`
	Amount   int64  `bun:"amount,notnull" json:"amount"`
	Category string `bun:"category,notnull" json:"category"`
	Note     string `bun:"note" json:"note"`
	Timestamps
}
