// Package testutil builds throwaway sqlite databases for package tests.
package testutil

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
)

// NewConnections opens an in-memory sqlite database with every model's table created.
// A single connection keeps the in-memory database alive for the test's duration.
// Foreign keys are enforced for the catalog, table and order references that
// hard deletes must respect.
func NewConnections(t *testing.T) *database.Connections {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", "file::memory:?_loc=UTC&_foreign_keys=on")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range entity.Models() {
		q := db.NewCreateTable().Model(model).IfNotExists()
		for _, fk := range foreignKeys(model) {
			q = q.ForeignKey(fk)
		}
		_, err := q.Exec(ctx)
		require.NoError(t, err)
	}

	return &database.Connections{Writer: db, Reader: db}
}

// Insert persists fixtures and fails the test on error.
func Insert(t *testing.T, conns *database.Connections, models ...any) {
	t.Helper()
	for _, model := range models {
		if stamped, ok := model.(entity.Stamper); ok {
			stamped.Stamp(timeNow())
		}
		_, err := conns.Writer.NewInsert().Model(model).Exec(context.Background())
		require.NoError(t, err)
	}
}

func foreignKeys(model any) []string {
	switch model.(type) {
	case *entity.Product:
		return []string{`("category_id") REFERENCES "categories" ("id")`}
	case *entity.Order:
		return []string{`("table_id") REFERENCES "tables" ("id")`}
	case *entity.OrderItem:
		return []string{`("product_id") REFERENCES "products" ("id")`}
	default:
		return nil
	}
}
