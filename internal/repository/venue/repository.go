package venue

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/repository/crud"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/bistro/repository/venue")

// ErrTableOccupied is returned when a table is already serving a pending order.
var ErrTableOccupied = errors.New("table is occupied")

// Repository covers dining tables and reservations.
type Repository struct {
	Tables       *crud.Store[entity.Table]
	Reservations *crud.Store[entity.Reservation]

	writer bun.IDB
	reader bun.IDB
	now    func() time.Time
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		Tables:       crud.NewStore[entity.Table]("Table", crud.HardDelete, conns),
		Reservations: crud.NewStore[entity.Reservation]("Reservation", crud.HardDelete, conns),
		writer:       conns.Writer,
		reader:       conns.Reader,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithTx binds the repository to db.
func (r *Repository) WithTx(db bun.IDB) *Repository {
	return &Repository{
		Tables:       r.Tables.WithTx(db),
		Reservations: r.Reservations.WithTx(db),
		writer:       db,
		reader:       db,
		now:          r.now,
	}
}

// ListTables returns every table with the id of the pending order occupying it.
func (r *Repository) ListTables(ctx context.Context) ([]entity.Table, error) {
	ctx, span := repoTracer.Start(ctx, "VenueRepository.ListTables")
	defer span.End()

	tables := make([]entity.Table, 0)
	err := r.reader.NewSelect().Model(&tables).
		ColumnExpr("tbl.*").
		ColumnExpr("(SELECT MAX(o.id) FROM orders AS o WHERE o.table_id = tbl.id AND o.status = ?) AS current_order_id", entity.OrderPending).
		OrderExpr("tbl.id ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return tables, nil
}

// Occupy flips an available table to unavailable. It returns crud.ErrNotFound for
// unknown tables and ErrTableOccupied when the table is already in use.
func (r *Repository) Occupy(ctx context.Context, tableID int64) error {
	return r.transition(ctx, "Occupy", tableID, entity.TableAvailable, entity.TableUnavailable)
}

// Release makes a table available again. Releasing an available table is a no-op.
func (r *Repository) Release(ctx context.Context, tableID int64) error {
	err := r.transition(ctx, "Release", tableID, entity.TableUnavailable, entity.TableAvailable)
	if errors.Is(err, ErrTableOccupied) {
		return nil
	}
	return err
}

func (r *Repository) transition(ctx context.Context, op string, tableID int64, from, to string) error {
	ctx, span := repoTracer.Start(ctx, "VenueRepository."+op, trace.WithAttributes(
		attribute.Int64("table.id", tableID),
		attribute.String("table.status", to),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Table)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", r.now()).
		Where("id = ?", tableID).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}

	exists, err := r.Tables.Exists(ctx, tableID)
	if err != nil {
		return err
	}
	if !exists {
		span.SetStatus(codes.Error, "not found")
		return crud.ErrNotFound
	}
	return ErrTableOccupied
}

// HasPendingOrder reports whether a pending order is attached to the table.
func (r *Repository) HasPendingOrder(ctx context.Context, tableID int64) (bool, error) {
	return r.reader.NewSelect().Model((*entity.Order)(nil)).
		Where("o.table_id = ?", tableID).
		Where("o.status = ?", entity.OrderPending).
		Exists(ctx)
}
