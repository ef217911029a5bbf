package finance

import (
	"context"
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

var repoTracer = otel.Tracer("github.com/Additional-Code/bistro/repository/finance")

// Repository covers payment methods and expenses.
type Repository struct {
	PaymentMethods *crud.Store[entity.PaymentMethod]
	Expenses       *crud.Store[entity.Expense]

	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		PaymentMethods: crud.NewStore[entity.PaymentMethod]("PaymentMethod", crud.HardDelete, conns),
		Expenses:       crud.NewStore[entity.Expense]("Expense", crud.HardDelete, conns),
		reader:         conns.Reader,
	}
}

// WithTx binds the repository to db.
func (r *Repository) WithTx(db bun.IDB) *Repository {
	return &Repository{
		PaymentMethods: r.PaymentMethods.WithTx(db),
		Expenses:       r.Expenses.WithTx(db),
		reader:         db,
	}
}

// SumExpenses totals a user's expenses created inside [from, to).
func (r *Repository) SumExpenses(ctx context.Context, userID int64, from, to time.Time) (int64, error) {
	ctx, span := repoTracer.Start(ctx, "FinanceRepository.SumExpenses", trace.WithAttributes(
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	var total int64
	err := r.reader.NewSelect().Model((*entity.Expense)(nil)).
		ColumnExpr("COALESCE(SUM(e.amount), 0)").
		Where("e.user_id = ?", userID).
		Where("e.created_at >= ?", from.UTC()).
		Where("e.created_at < ?", to.UTC()).
		Scan(ctx, &total)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sum failed")
		return 0, err
	}
	return total, nil
}
