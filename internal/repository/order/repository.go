package order

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/bistro/repository/order")

var (
	// ErrNotFound is returned when an order is missing.
	ErrNotFound = errors.New("order not found")
	// ErrStale is returned when a guarded write matched no row because the order
	// left the pending state or its version moved on.
	ErrStale = errors.New("order changed concurrently")
)

var terminalStatuses = []string{entity.OrderCompleted, entity.OrderCancelled}

// Repository encapsulates read/write access for orders and their items.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// WithTx binds the repository to db.
func (r *Repository) WithTx(db bun.IDB) *Repository {
	return &Repository{writer: db, reader: db}
}

// Create persists a new order using the write connection.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.uuid", order.UUID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// AddItems inserts items for an existing order.
func (r *Repository) AddItems(ctx context.Context, items []*entity.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.AddItems", trace.WithAttributes(
		attribute.Int64("order.id", items[0].OrderID),
		attribute.Int("items", len(items)),
	))
	defer span.End()

	_, err := r.writer.NewInsert().Model(&items).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order by primary key without relations.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Where("o.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// GetDetailed fetches an order with its items, table, buffet and payment method.
func (r *Repository) GetDetailed(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetDetailed", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := withDetails(r.reader.NewSelect().Model(order)).
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// List returns every order, newest first, with its table.
func (r *Repository) List(ctx context.Context) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	orders := make([]entity.Order, 0)
	err := r.reader.NewSelect().Model(&orders).
		Relation("Table").
		OrderExpr("o.created_at DESC, o.id DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// HistoryFilter narrows history queries over completed and cancelled orders.
type HistoryFilter struct {
	UserID   int64
	TableID  int64
	UUIDLike string
}

// History returns terminal orders matching filter, newest first.
func (r *Repository) History(ctx context.Context, filter HistoryFilter) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.History", trace.WithAttributes(
		attribute.Int64("user.id", filter.UserID),
		attribute.Int64("table.id", filter.TableID),
	))
	defer span.End()

	orders := make([]entity.Order, 0)
	q := withDetails(r.reader.NewSelect().Model(&orders)).
		Where("o.status IN (?)", bun.In(terminalStatuses))
	if filter.UserID > 0 {
		q = q.Where("o.user_id = ?", filter.UserID)
	}
	if filter.TableID > 0 {
		q = q.Where("o.table_id = ?", filter.TableID)
	}
	if fragment := strings.ToLower(strings.TrimSpace(filter.UUIDLike)); fragment != "" {
		q = q.Where("LOWER(o.uuid) LIKE ?", "%"+stripWildcards(fragment)+"%")
	}

	if err := q.OrderExpr("o.created_at DESC, o.id DESC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// Totals is the new monetary state written by ApplyTotals.
type Totals struct {
	TotalAmount int64
	GrandTotal  int64
}

// ApplyTotals rewrites the totals of a pending order if its version still matches.
func (r *Repository) ApplyTotals(ctx context.Context, id, version int64, totals Totals, at time.Time) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ApplyTotals", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.Int64("order.version", version),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("total_amount = ?", totals.TotalAmount).
		Set("grand_total = ?", totals.GrandTotal).
		Set("version = version + 1").
		Set("updated_at = ?", at.UTC()).
		Where("id = ?", id).
		Where("status = ?", entity.OrderPending).
		Where("version = ?", version).
		Exec(ctx)
	return guarded(span, res, err)
}

// Transition describes a terminal status change.
type Transition struct {
	To              string
	At              time.Time
	PaymentMethodID *int64
}

// Transition moves a pending order to a terminal status. Only one caller can win:
// the update is guarded on status = pending.
func (r *Repository) Transition(ctx context.Context, id int64, t Transition) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Transition", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", t.To),
	))
	defer span.End()

	at := t.At.UTC()
	q := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("status = ?", t.To).
		Set("version = version + 1").
		Set("updated_at = ?", at)
	switch t.To {
	case entity.OrderCompleted:
		q = q.Set("completed_at = ?", at)
		if t.PaymentMethodID != nil {
			q = q.Set("payment_method_id = ?", *t.PaymentMethodID)
		}
	case entity.OrderCancelled:
		q = q.Set("cancelled_at = ?", at)
	default:
		return errors.New("unsupported order transition: " + t.To)
	}

	res, err := q.Where("id = ?", id).
		Where("status = ?", entity.OrderPending).
		Exec(ctx)
	return guarded(span, res, err)
}

// SalesSummary aggregates completed orders in a window.
type SalesSummary struct {
	TotalSales  int64 `bun:"total_sales"`
	TotalOrders int64 `bun:"total_orders"`
}

// Summary sums grand_total and counts completed orders created inside [from, to).
func (r *Repository) Summary(ctx context.Context, from, to time.Time) (SalesSummary, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Summary")
	defer span.End()

	var summary SalesSummary
	err := r.reader.NewSelect().Model((*entity.Order)(nil)).
		ColumnExpr("COALESCE(SUM(o.grand_total), 0) AS total_sales").
		ColumnExpr("COUNT(o.id) AS total_orders").
		Where("o.status = ?", entity.OrderCompleted).
		Where("o.created_at >= ?", from.UTC()).
		Where("o.created_at < ?", to.UTC()).
		Scan(ctx, &summary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return SalesSummary{}, err
	}
	return summary, nil
}

// ProductSales is one row of the top products ranking.
type ProductSales struct {
	ProductID int64  `bun:"product_id"`
	Name      string `bun:"name"`
	Quantity  int64  `bun:"quantity"`
	Revenue   int64  `bun:"revenue"`
}

// TopProducts ranks products by revenue over completed orders created inside [from, to).
func (r *Repository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.TopProducts", trace.WithAttributes(attribute.Int("limit", limit)))
	defer span.End()

	rows := make([]ProductSales, 0)
	err := r.reader.NewSelect().
		TableExpr("order_items AS oi").
		Join("JOIN orders AS o ON o.id = oi.order_id").
		Join("JOIN products AS p ON p.id = oi.product_id").
		ColumnExpr("oi.product_id AS product_id").
		ColumnExpr("p.name AS name").
		ColumnExpr("SUM(oi.quantity) AS quantity").
		ColumnExpr("SUM(oi.quantity * oi.unit_price) AS revenue").
		Where("o.status = ?", entity.OrderCompleted).
		Where("o.created_at >= ?", from.UTC()).
		Where("o.created_at < ?", to.UTC()).
		GroupExpr("oi.product_id, p.name").
		OrderExpr("revenue DESC, oi.product_id ASC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return nil, err
	}
	return rows, nil
}

func withDetails(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Relation("Table").
		Relation("Buffet").
		Relation("PaymentMethod").
		Relation("Items", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("oi.id ASC")
		}).
		Relation("Items.Product").
		Relation("Items.Variant")
}

func guarded(span trace.Span, res sql.Result, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		span.SetStatus(codes.Error, "stale")
		return ErrStale
	}
	return nil
}

func stripWildcards(s string) string {
	return strings.NewReplacer(`%`, ``, `_`, ``).Replace(s)
}
