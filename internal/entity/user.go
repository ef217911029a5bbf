package entity

import "github.com/uptrace/bun"

// User is a staff account able to operate the point of sale.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Name     string `bun:"name,notnull" json:"name"`
	Email    string `bun:"email,notnull,unique" json:"email"`
	Password string `bun:"password,notnull" json:"-"`
	Timestamps
}
