package entity

import "github.com/uptrace/bun"

// Table statuses.
const (
	TableAvailable   = "available"
	TableUnavailable = "unavailable"
)

// Table is a dining table orders are placed against.
type Table struct {
	bun.BaseModel `bun:"table:tables,alias:tbl"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	TableNo string `bun:"table_no,notnull" json:"table_no"`
	Status  string `bun:"status,notnull" json:"status"`
	Timestamps

	// CurrentOrderID is the pending order occupying the table, filled by list queries.
	CurrentOrderID *int64 `bun:"current_order_id,scanonly" json:"current_order_id"`
}
