package migration

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	migrations "github.com/Additional-Code/bistro/db/migrations"
	"github.com/Additional-Code/bistro/internal/entity"
)

const createTables = `-- +goose Up
CREATE TABLE tables (id INTEGER PRIMARY KEY, table_no TEXT NOT NULL);

-- +goose Down
DROP TABLE tables;
`

func newMigrator(t *testing.T) (*Migrator, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "bistro.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00001_tables.sql"), []byte(createTables), 0o644))
	require.NoError(t, goose.SetDialect("sqlite3"))

	return &Migrator{db: db, dir: dir, logger: zap.NewNop()}, db
}

func TestUpAndDown(t *testing.T) {
	m, db := newMigrator(t)
	ctx := context.Background()

	require.NoError(t, m.Up(ctx))
	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	_, err = db.Exec("INSERT INTO tables (table_no) VALUES ('T-001')")
	require.NoError(t, err)

	require.NoError(t, m.Up(ctx))

	require.NoError(t, m.Down(ctx, 1, false))
	version, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	require.NoError(t, m.Down(ctx, 1, false))
}

func TestGooseDialect(t *testing.T) {
	for driver, want := range map[string]string{"pg": "postgres", "postgres": "postgres", "mysql": "mysql", "sqlite": "sqlite3"} {
		got, err := gooseDialect(driver)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := gooseDialect("oracle")
	assert.Error(t, err)
}

func TestStatusReportsAppliedMigrations(t *testing.T) {
	m, _ := newMigrator(t)
	ctx := context.Background()

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, int64(1), statuses[0].Version)
	assert.False(t, statuses[0].Applied)

	require.NoError(t, m.Up(ctx))
	statuses, err = m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, statuses[0].Applied)
}

func TestEmbeddedMigrationsAreCollected(t *testing.T) {
	for _, dialect := range []string{"postgres", "mysql", "sqlite3"} {
		m := &Migrator{fsys: migrations.FS, dir: migrations.Dir(dialect), logger: zap.NewNop()}

		var known goose.Migrations
		require.NoError(t, m.run(func() error {
			var err error
			known, err = goose.CollectMigrations(m.dir, 0, goose.MaxVersion)
			return err
		}), dialect)
		require.NotEmpty(t, known, dialect)
		assert.Equal(t, int64(1), known[0].Version, dialect)
		assert.Equal(t, "embedded", m.source())
	}
}

func TestEmbeddedSqliteSchemaAcceptsModels(t *testing.T) {
	sqldb, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "bistro.db")+"?_loc=UTC&_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })
	require.NoError(t, goose.SetDialect("sqlite3"))

	m := &Migrator{db: sqldb, fsys: migrations.FS, dir: migrations.Dir("sqlite3"), logger: zap.NewNop()}
	ctx := context.Background()
	require.NoError(t, m.Up(ctx))

	db := bun.NewDB(sqldb, sqlitedialect.New())
	now := time.Now().UTC()
	user := &entity.User{Name: "Cashier", Email: "cashier@bistro.test", Password: "hash"}
	table := &entity.Table{TableNo: "T-001", Status: entity.TableAvailable}
	category := &entity.Category{Name: "Mains"}
	for _, model := range []entity.Stamper{user, table, category} {
		model.Stamp(now)
		_, err := db.NewInsert().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	product := &entity.Product{Name: "Nasi Goreng", Price: 25000, CategoryID: category.ID}
	product.Stamp(now)
	_, err = db.NewInsert().Model(product).Exec(ctx)
	require.NoError(t, err)

	order := &entity.Order{
		UUID: "6f1c2a52-7f51-4d4e-9a38-4c4f4b7d2d10", UserID: user.ID, TableID: table.ID,
		Status: entity.OrderPending, TotalAmount: 50000, GrandTotal: 50000, Version: 1,
	}
	order.Stamp(now)
	_, err = db.NewInsert().Model(order).Exec(ctx)
	require.NoError(t, err)

	item := &entity.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 2, UnitPrice: 25000, CreatedAt: now}
	_, err = db.NewInsert().Model(item).Exec(ctx)
	require.NoError(t, err)

	var got entity.Order
	require.NoError(t, db.NewSelect().Model(&got).Relation("Items").Where("o.id = ?", order.ID).Scan(ctx))
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(50000), got.GrandTotal)
	assert.Equal(t, product.ID, got.Items[0].ProductID)

	// The shipped schema rejects items pointing at unknown products.
	orphan := &entity.OrderItem{OrderID: order.ID, ProductID: 999, Quantity: 1, UnitPrice: 1, CreatedAt: now}
	_, err = db.NewInsert().Model(orphan).Exec(ctx)
	require.Error(t, err)
}
