package entity

import "time"

// Stamper is implemented by models that track creation and update times.
type Stamper interface {
	Stamp(now time.Time)
}

// Timestamps is embedded by models carrying created_at/updated_at columns.
type Timestamps struct {
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// Stamp fills CreatedAt on first write and always refreshes UpdatedAt.
func (t *Timestamps) Stamp(now time.Time) {
	now = now.UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}
