package crud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/testutil"
)

func TestSoftDeleteHidesRows(t *testing.T) {
	conns := testutil.NewConnections(t)
	store := NewStore[entity.Buffet]("buffet", SoftDelete, conns)
	ctx := context.Background()
	assert.Equal(t, SoftDelete, store.Mode())

	lunch := &entity.Buffet{Name: "Lunch", Price: 90000}
	dinner := &entity.Buffet{Name: "Dinner", Price: 150000}
	require.NoError(t, store.Create(ctx, lunch))
	require.NoError(t, store.Create(ctx, dinner))

	require.NoError(t, store.Delete(ctx, lunch.ID))
	assert.ErrorIs(t, store.Delete(ctx, lunch.ID), ErrNotFound)

	_, err := store.Get(ctx, lunch.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	rows, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Dinner", rows[0].Name)

	var raw entity.Buffet
	require.NoError(t, conns.Reader.NewSelect().Model(&raw).Where("id = ?", lunch.ID).Scan(ctx))
	assert.True(t, raw.IsDeleted)

	lunch.Price = 1
	assert.ErrorIs(t, store.Update(ctx, lunch, "price"), ErrNotFound)
}

func TestHardDeleteAndDuplicates(t *testing.T) {
	conns := testutil.NewConnections(t)
	store := NewStore[entity.Category]("category", HardDelete, conns)
	ctx := context.Background()

	mains := &entity.Category{Name: "Mains"}
	require.NoError(t, store.Create(ctx, mains))
	assert.ErrorIs(t, store.Create(ctx, &entity.Category{Name: "Mains"}), ErrDuplicate)

	ok, err := store.Exists(ctx, mains.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	mains.Name = "Main Courses"
	require.NoError(t, store.Update(ctx, mains, "name"))
	got, err := store.Get(ctx, mains.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main Courses", got.Name)

	require.NoError(t, store.Delete(ctx, mains.ID))
	ok, err = store.Exists(ctx, mains.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, store.Delete(ctx, mains.ID), ErrNotFound)
}

func TestHardDeleteRefusesReferencedRows(t *testing.T) {
	conns := testutil.NewConnections(t)
	categories := NewStore[entity.Category]("category", HardDelete, conns)
	products := NewStore[entity.Product]("product", HardDelete, conns)
	ctx := context.Background()

	drinks := &entity.Category{Name: "Drinks"}
	require.NoError(t, categories.Create(ctx, drinks))
	tea := &entity.Product{Name: "Iced Tea", Price: 8000, CategoryID: drinks.ID}
	require.NoError(t, products.Create(ctx, tea))

	assert.ErrorIs(t, categories.Delete(ctx, drinks.ID), ErrReferenced)
	ok, err := categories.Exists(ctx, drinks.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, products.Delete(ctx, tea.ID))
	require.NoError(t, categories.Delete(ctx, drinks.ID))
}

func TestWithTxUsesGivenHandle(t *testing.T) {
	conns := testutil.NewConnections(t)
	store := NewStore[entity.Category]("category", HardDelete, conns)
	ctx := context.Background()

	tx, err := conns.Writer.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.WithTx(tx).Create(ctx, &entity.Category{Name: "Drinks"}))
	require.NoError(t, tx.Rollback())

	rows, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
