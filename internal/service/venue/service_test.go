package venue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/entity"
	venuerepo "github.com/Additional-Code/bistro/internal/repository/venue"
	"github.com/Additional-Code/bistro/internal/testutil"
	"github.com/Additional-Code/bistro/internal/validation"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

func newService(t *testing.T) (*Service, *database.Connections) {
	t.Helper()
	conns := testutil.NewConnections(t)
	svc := NewService(Params{
		Repository: venuerepo.NewRepository(conns),
		Validator:  validation.New(),
		Logger:     zap.NewNop(),
	})
	return svc, conns
}

func occupy(t *testing.T, conns *database.Connections, table *entity.Table) *entity.Order {
	t.Helper()
	_, err := conns.Writer.NewUpdate().Model(table).
		Set("status = ?", entity.TableUnavailable).
		WherePK().
		Exec(context.Background())
	require.NoError(t, err)

	order := &entity.Order{UUID: "0f5e0c9a-test", UserID: 1, TableID: table.ID, Status: entity.OrderPending}
	testutil.Insert(t, conns, order)
	return order
}

func TestCreateTableStartsAvailable(t *testing.T) {
	svc, _ := newService(t)

	table, err := svc.CreateTable(context.Background(), dto.CreateTableRequest{TableNo: " T-001 "})
	require.NoError(t, err)
	assert.Equal(t, "T-001", table.TableNo)
	assert.Equal(t, entity.TableAvailable, table.Status)

	_, err = svc.CreateTable(context.Background(), dto.CreateTableRequest{TableNo: ""})
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))
}

func TestListTablesReportsCurrentOrder(t *testing.T) {
	svc, conns := newService(t)
	ctx := context.Background()

	busy, err := svc.CreateTable(ctx, dto.CreateTableRequest{TableNo: "T-001"})
	require.NoError(t, err)
	_, err = svc.CreateTable(ctx, dto.CreateTableRequest{TableNo: "T-002"})
	require.NoError(t, err)
	order := occupy(t, conns, busy)

	tables, err := svc.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	require.NotNil(t, tables[0].CurrentOrderID)
	assert.Equal(t, order.ID, *tables[0].CurrentOrderID)
	assert.Equal(t, entity.TableUnavailable, tables[0].Status)
	assert.Nil(t, tables[1].CurrentOrderID)
}

func TestBusyTableCannotBeDeletedOrFreedByHand(t *testing.T) {
	svc, conns := newService(t)
	ctx := context.Background()

	table, err := svc.CreateTable(ctx, dto.CreateTableRequest{TableNo: "T-003"})
	require.NoError(t, err)
	occupy(t, conns, table)

	err = svc.DeleteTable(ctx, table.ID)
	assert.True(t, errorbank.Is(err, errorbank.KindConflict))

	available := entity.TableAvailable
	_, err = svc.UpdateTable(ctx, table.ID, dto.UpdateTableRequest{Status: &available})
	assert.True(t, errorbank.Is(err, errorbank.KindConflict))

	renamed := "T-003A"
	updated, err := svc.UpdateTable(ctx, table.ID, dto.UpdateTableRequest{TableNo: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "T-003A", updated.TableNo)

	err = svc.DeleteTable(ctx, 999)
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
}

func TestTableWithOrderHistoryCannotBeDeleted(t *testing.T) {
	svc, conns := newService(t)
	ctx := context.Background()

	table, err := svc.CreateTable(ctx, dto.CreateTableRequest{TableNo: "T-004"})
	require.NoError(t, err)
	order := occupy(t, conns, table)
	_, err = conns.Writer.NewUpdate().Model(order).
		Set("status = ?", entity.OrderCompleted).
		WherePK().
		Exec(ctx)
	require.NoError(t, err)

	err = svc.DeleteTable(ctx, table.ID)
	require.True(t, errorbank.Is(err, errorbank.KindConflict), err)
	assert.Equal(t, "table is still in use", errorbank.From(err).Message())

	_, err = svc.GetTable(ctx, table.ID)
	assert.NoError(t, err)
}

func TestReservationNeedsExistingTable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

	_, err := svc.CreateReservation(ctx, dto.CreateReservationRequest{
		Name: "Rina", Phone: "0812", Date: date, People: 4, TableID: 7,
	})
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))

	table, err := svc.CreateTable(ctx, dto.CreateTableRequest{TableNo: "T-004"})
	require.NoError(t, err)

	reservation, err := svc.CreateReservation(ctx, dto.CreateReservationRequest{
		Name: " Rina ", Phone: "0812", Date: date, People: 4, TableID: table.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Rina", reservation.Name)
	require.NotNil(t, reservation.Table)
	assert.Equal(t, "T-004", reservation.Table.TableNo)
	assert.True(t, date.Equal(reservation.Date))

	_, err = svc.CreateReservation(ctx, dto.CreateReservationRequest{
		Name: "Budi", Phone: "0813", Date: date, People: 0, TableID: table.ID,
	})
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))

	require.NoError(t, svc.DeleteReservation(ctx, reservation.ID))
	_, err = svc.GetReservation(ctx, reservation.ID)
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
}
