package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Reservation books a table for a party at a given time.
type Reservation struct {
	bun.BaseModel `bun:"table:reservations,alias:r"`

	ID      int64     `bun:"id,pk,autoincrement" json:"id"`
	Name    string    `bun:"name,notnull" json:"name"`
	Phone   string    `bun:"phone,notnull" json:"phone"`
	Date    time.Time `bun:"date,notnull" json:"date"`
	People  int       `bun:"people,notnull" json:"people"`
	TableID int64     `bun:"table_id,notnull" json:"table_id"`
	Timestamps

	Table *Table `bun:"rel:belongs-to,join:table_id=id" json:"table,omitempty"`
}
