package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/auth"
	"github.com/Additional-Code/bistro/internal/cache"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/messaging"
	"github.com/Additional-Code/bistro/internal/observability"
	catalogrepo "github.com/Additional-Code/bistro/internal/repository/catalog"
	"github.com/Additional-Code/bistro/internal/repository/crud"
	financerepo "github.com/Additional-Code/bistro/internal/repository/finance"
	repo "github.com/Additional-Code/bistro/internal/repository/order"
	venuerepo "github.com/Additional-Code/bistro/internal/repository/venue"
	reportsvc "github.com/Additional-Code/bistro/internal/service/report"
	"github.com/Additional-Code/bistro/internal/validation"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bistro/service/order")

// ReportCache is told when completed sales change.
type ReportCache interface {
	Invalidate(ctx context.Context) error
}

// Service runs the order lifecycle: creation, augmentation, checkout and cancellation.
type Service struct {
	db        *bun.DB
	orders    *repo.Repository
	venue     *venuerepo.Repository
	catalog   *catalogrepo.Repository
	finance   *financerepo.Repository
	reports   ReportCache
	cache     cache.Store
	cacheTTL  time.Duration
	publisher messaging.Client
	messaging messagingConfig
	validate  *validation.Validator
	logger    *zap.Logger
	metrics   *instruments
	now       func() time.Time
}

type messagingConfig struct {
	enabled  bool
	producer string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Connections   *database.Connections
	Orders        *repo.Repository
	Venue         *venuerepo.Repository
	Catalog       *catalogrepo.Repository
	Finance       *financerepo.Repository
	Reports       *reportsvc.Service
	Cache         cache.Store
	Config        config.Config
	Publisher     messaging.Client
	Observability *observability.Manager `optional:"true"`
	Validator     *validation.Validator
	Logger        *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	store := p.Cache
	if store == nil {
		store = cache.Noop()
	}
	var reports ReportCache
	if p.Reports != nil {
		reports = p.Reports
	}
	return &Service{
		db:        p.Connections.Writer,
		orders:    p.Orders,
		venue:     p.Venue,
		catalog:   p.Catalog,
		finance:   p.Finance,
		reports:   reports,
		cache:     store,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled:  p.Config.Messaging.Enabled,
			producer: p.Config.Observability.ServiceName,
		},
		validate: p.Validator,
		logger:   p.Logger,
		metrics:  newInstruments(p.Observability.Meter(meterName), p.Logger),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create opens an item order on a table. Pricing, the order row, its items and
// the table occupancy are written in one transaction.
func (s *Service) Create(ctx context.Context, id auth.Identity, req dto.CreateOrderRequest) (*entity.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(
		attribute.Int64("table.id", req.TableID),
		attribute.Int("items", len(req.OrderItems)),
	))
	defer span.End()

	now := s.now().UTC()
	order := &entity.Order{
		UUID:    uuid.NewString(),
		UserID:  id.UserID,
		TableID: req.TableID,
		Status:  entity.OrderPending,
		Tax:     req.Tax,
		Version: 1,
	}
	order.Stamp(now)

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		items, total, err := priceItems(ctx, s.catalog.WithTx(tx), req.OrderItems, now)
		if err != nil {
			return err
		}
		order.TotalAmount = total
		if order.GrandTotal, err = entity.AddAmount(total, order.Tax); err != nil {
			return amountError("tax")
		}

		if err := s.open(ctx, tx, order); err != nil {
			return err
		}
		for _, item := range items {
			item.OrderID = order.ID
		}
		if err := s.orders.WithTx(tx).AddItems(ctx, items); err != nil {
			return errorbank.Internal("failed to store order items", errorbank.WithCause(err))
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err, "create order")
	}

	s.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("uuid", order.UUID),
		zap.Int64("table_id", order.TableID),
		zap.Int64("grand_total", order.GrandTotal),
	)
	s.metrics.transition(ctx, entity.OrderPending, false)
	s.publish(ctx, EventCreated, order)
	return s.detailed(ctx, order.ID)
}

// CreateBuffet opens a flat rate buffet order. The price is read from the stored
// buffet, never from the request.
func (s *Service) CreateBuffet(ctx context.Context, id auth.Identity, req dto.CreateBuffetOrderRequest) (*entity.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.CreateBuffet", trace.WithAttributes(
		attribute.Int64("table.id", req.TableID),
		attribute.Int64("buffet.id", req.BuffetID),
	))
	defer span.End()

	now := s.now().UTC()
	buffetID := req.BuffetID
	order := &entity.Order{
		UUID:        uuid.NewString(),
		UserID:      id.UserID,
		TableID:     req.TableID,
		Status:      entity.OrderPending,
		IsBuffet:    true,
		BuffetID:    &buffetID,
		PeopleCount: req.PeopleCount,
		Tax:         req.Tax,
		Version:     1,
	}
	order.Stamp(now)

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		buffet, err := s.catalog.WithTx(tx).Buffets.Get(ctx, req.BuffetID)
		if errors.Is(err, crud.ErrNotFound) {
			return errorbank.NotFound("buffet not found")
		}
		if err != nil {
			return errorbank.Internal("failed to load buffet", errorbank.WithCause(err))
		}
		if order.TotalAmount, err = entity.MulAmount(buffet.Price, req.PeopleCount); err != nil {
			return amountError("people_count")
		}
		if order.GrandTotal, err = entity.AddAmount(order.TotalAmount, order.Tax); err != nil {
			return amountError("tax")
		}
		return s.open(ctx, tx, order)
	})
	if err != nil {
		return nil, s.fail(span, err, "create buffet order")
	}

	s.logger.Info("buffet order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("buffet_id", buffetID),
		zap.Int("people", order.PeopleCount),
	)
	s.metrics.transition(ctx, entity.OrderPending, true)
	s.publish(ctx, EventCreated, order)
	return s.detailed(ctx, order.ID)
}

// open occupies the table and inserts the order row.
func (s *Service) open(ctx context.Context, tx bun.Tx, order *entity.Order) error {
	err := s.venue.WithTx(tx).Occupy(ctx, order.TableID)
	switch {
	case errors.Is(err, crud.ErrNotFound):
		return errorbank.NotFound("table not found")
	case errors.Is(err, venuerepo.ErrTableOccupied):
		return errorbank.Conflict("table is not available")
	case err != nil:
		return errorbank.Internal("failed to occupy table", errorbank.WithCause(err))
	}

	if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
		return errorbank.Internal("failed to store order", errorbank.WithCause(err))
	}
	return nil
}

// AddItems appends items to a pending item order and raises its totals. The
// write is guarded on status and version so a concurrent transition wins cleanly.
func (s *Service) AddItems(ctx context.Context, id auth.Identity, orderID int64, req dto.AddOrderItemsRequest) (*entity.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.AddItems", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("user.id", id.UserID),
	))
	defer span.End()

	now := s.now().UTC()
	var order *entity.Order
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		orders := s.orders.WithTx(tx)

		var err error
		order, err = s.pending(ctx, orders, orderID, "updated")
		if err != nil {
			return err
		}
		if order.IsBuffet {
			return errorbank.Conflict("buffet orders cannot take additional items")
		}

		items, added, err := priceItems(ctx, s.catalog.WithTx(tx), req.AdditionalItems, now)
		if err != nil {
			return err
		}
		for _, item := range items {
			item.OrderID = order.ID
		}
		if err := orders.AddItems(ctx, items); err != nil {
			return errorbank.Internal("failed to store order items", errorbank.WithCause(err))
		}

		var totals repo.Totals
		if totals.TotalAmount, err = entity.AddAmount(order.TotalAmount, added); err != nil {
			return amountError("additional_items")
		}
		if totals.GrandTotal, err = entity.AddAmount(totals.TotalAmount, order.Tax); err != nil {
			return amountError("additional_items")
		}
		if err := orders.ApplyTotals(ctx, order.ID, order.Version, totals, now); err != nil {
			return s.guardError(err, "order was modified concurrently")
		}
		order.TotalAmount = totals.TotalAmount
		order.GrandTotal = totals.GrandTotal
		order.Version++
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err, "update order")
	}

	s.forget(ctx, orderID)
	s.publish(ctx, EventItemsAdded, order)
	return s.detailed(ctx, orderID)
}

// Checkout completes a pending order, records the optional payment method and
// frees the table. A second checkout is a conflict and leaves the order unchanged.
func (s *Service) Checkout(ctx context.Context, id auth.Identity, orderID int64, req dto.CheckoutOrderRequest) (*entity.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Checkout", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("user.id", id.UserID),
	))
	defer span.End()

	now := s.now().UTC()
	var order *entity.Order
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		orders := s.orders.WithTx(tx)

		var err error
		order, err = s.pending(ctx, orders, orderID, "checked out")
		if err != nil {
			return err
		}

		if req.PaymentMethodID != nil {
			exists, err := s.finance.WithTx(tx).PaymentMethods.Exists(ctx, *req.PaymentMethodID)
			if err != nil {
				return errorbank.Internal("failed to load payment method", errorbank.WithCause(err))
			}
			if !exists {
				return errorbank.NotFound("payment method not found")
			}
		}

		err = orders.Transition(ctx, order.ID, repo.Transition{
			To:              entity.OrderCompleted,
			At:              now,
			PaymentMethodID: req.PaymentMethodID,
		})
		if err != nil {
			return s.guardError(err, "order is no longer pending")
		}
		if err := s.venue.WithTx(tx).Release(ctx, order.TableID); err != nil {
			return errorbank.Internal("failed to release table", errorbank.WithCause(err))
		}

		order.Status = entity.OrderCompleted
		order.CompletedAt = &now
		order.PaymentMethodID = req.PaymentMethodID
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err, "checkout order")
	}

	s.logger.Info("order checked out",
		zap.Int64("order_id", orderID),
		zap.Int64("grand_total", order.GrandTotal),
	)
	s.forget(ctx, orderID)
	if s.reports != nil {
		if err := s.reports.Invalidate(ctx); err != nil {
			s.logger.Warn("report cache invalidation failed", zap.Error(err))
		}
	}
	s.metrics.transition(ctx, entity.OrderCompleted, order.IsBuffet)
	s.metrics.checkout(ctx, order.GrandTotal)
	s.publish(ctx, EventCompleted, order)
	return s.detailed(ctx, orderID)
}

// Cancel moves a pending order to cancelled and frees the table.
func (s *Service) Cancel(ctx context.Context, id auth.Identity, orderID int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Cancel", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("user.id", id.UserID),
	))
	defer span.End()

	now := s.now().UTC()
	var order *entity.Order
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		orders := s.orders.WithTx(tx)

		var err error
		order, err = s.pending(ctx, orders, orderID, "cancelled")
		if err != nil {
			return err
		}
		if err := orders.Transition(ctx, order.ID, repo.Transition{To: entity.OrderCancelled, At: now}); err != nil {
			return s.guardError(err, "order is no longer pending")
		}
		if err := s.venue.WithTx(tx).Release(ctx, order.TableID); err != nil {
			return errorbank.Internal("failed to release table", errorbank.WithCause(err))
		}

		order.Status = entity.OrderCancelled
		order.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err, "cancel order")
	}

	s.logger.Info("order cancelled", zap.Int64("order_id", orderID))
	s.forget(ctx, orderID)
	s.metrics.transition(ctx, entity.OrderCancelled, order.IsBuffet)
	s.publish(ctx, EventCancelled, order)
	return s.detailed(ctx, orderID)
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, s.fail(span, err, "list orders")
	}
	return orders, nil
}

// Get retrieves an order with its details, consulting the cache first.
func (s *Service) Get(ctx context.Context, orderID int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	key := cacheKey(orderID)
	if order, err := cache.GetJSON[entity.Order](ctx, s.cache, key); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.Int64("id", orderID), zap.Error(err))
	}

	order, err := s.detailed(ctx, orderID)
	if err != nil {
		return nil, s.fail(span, err, "load order")
	}

	if err := cache.SetJSON(ctx, s.cache, key, order, s.cacheTTL); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", orderID), zap.Error(err))
	}
	return order, nil
}

// History lists the caller's completed and cancelled orders.
func (s *Service) History(ctx context.Context, id auth.Identity) ([]entity.Order, error) {
	return s.history(ctx, "OrderService.History", repo.HistoryFilter{UserID: id.UserID})
}

// SearchHistory matches the caller's finished orders by a case-insensitive uuid fragment.
func (s *Service) SearchHistory(ctx context.Context, id auth.Identity, fragment string) ([]entity.Order, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, errorbank.BadRequest("validation failed", errorbank.WithFields(map[string]string{
			"uuid": "uuid is required",
		}))
	}
	return s.history(ctx, "OrderService.SearchHistory", repo.HistoryFilter{UserID: id.UserID, UUIDLike: fragment})
}

// HistoryByTable lists the finished orders served on a table.
func (s *Service) HistoryByTable(ctx context.Context, tableID int64) ([]entity.Order, error) {
	if tableID <= 0 {
		return nil, errorbank.BadRequest("validation failed", errorbank.WithFields(map[string]string{
			"tableId": "tableId must be greater than 0",
		}))
	}
	return s.history(ctx, "OrderService.HistoryByTable", repo.HistoryFilter{TableID: tableID})
}

func (s *Service) history(ctx context.Context, op string, filter repo.HistoryFilter) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, op)
	defer span.End()

	orders, err := s.orders.History(ctx, filter)
	if err != nil {
		return nil, s.fail(span, err, "load order history")
	}
	return orders, nil
}

// pending loads an order that must still be pending; verb names the refused action.
func (s *Service) pending(ctx context.Context, orders *repo.Repository, orderID int64, verb string) (*entity.Order, error) {
	order, err := orders.GetByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errorbank.NotFound("order not found")
	}
	if err != nil {
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	if !order.IsPending() {
		return nil, errorbank.Conflict(fmt.Sprintf("only pending orders can be %s", verb))
	}
	return order, nil
}

func (s *Service) detailed(ctx context.Context, orderID int64) (*entity.Order, error) {
	order, err := s.orders.GetDetailed(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errorbank.NotFound("order not found")
	}
	if err != nil {
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	return order, nil
}

func (s *Service) guardError(err error, msg string) error {
	if errors.Is(err, repo.ErrStale) {
		return errorbank.Conflict(msg)
	}
	return errorbank.Internal("failed to update order", errorbank.WithCause(err))
}

func (s *Service) forget(ctx context.Context, orderID int64) {
	if err := s.cache.Delete(ctx, cacheKey(orderID)); err != nil {
		s.logger.Warn("orders cache delete failed", zap.Int64("id", orderID), zap.Error(err))
	}
}

// fail records err on span and makes sure callers only ever see AppErrors.
func (s *Service) fail(span trace.Span, err error, action string) error {
	appErr := errorbank.From(err)
	if appErr.Kind() == errorbank.KindInternal {
		span.RecordError(err)
		span.SetStatus(codes.Error, action)
		if !errors.As(err, new(*errorbank.AppError)) {
			return errorbank.Internal("failed to "+action, errorbank.WithCause(err))
		}
	}
	return appErr
}

func cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}
