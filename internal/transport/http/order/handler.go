package order

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/auth"
	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	service "github.com/Additional-Code/bistro/internal/service/order"
	"github.com/Additional-Code/bistro/internal/transport/http/middleware"
	"github.com/Additional-Code/bistro/internal/transport/http/request"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/bistro/transport/http/order")

// Handler exposes order and order history endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, mw *middleware.Auth) {
	g := e.Group("/orders")
	g.GET("", h.list, mw.Require)
	g.POST("", h.create, mw.Require)
	g.POST("/buffet", h.createBuffet, mw.Require)
	g.POST("/checkout/:id", h.checkout, mw.Require)
	g.POST("/cancel/:id", h.cancel, mw.Require)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.addItems, mw.Require)
	g.DELETE("/:id", h.remove)

	histories := e.Group("/histories", mw.Require)
	histories.GET("", h.history)
	histories.GET("/table/:tableId", h.historyByTable)
	histories.GET("/:uuid", h.searchHistory)
}

// createPayload accepts both order shapes on POST /orders.
type createPayload struct {
	TableID     int64                  `json:"table_id"`
	Tax         int64                  `json:"tax"`
	OrderItems  []dto.OrderItemRequest `json:"order_items"`
	BuffetID    *int64                 `json:"buffet_id"`
	PeopleCount int                    `json:"people_count"`
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(orders).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(order).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	caller, err := request.Identity(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload createPayload
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.Int64("table.id", payload.TableID),
		attribute.Bool("order.buffet", payload.BuffetID != nil),
	))
	defer span.End()

	if payload.BuffetID != nil {
		order, err := h.svc.CreateBuffet(ctx, caller, dto.CreateBuffetOrderRequest{
			TableID:     payload.TableID,
			BuffetID:    *payload.BuffetID,
			PeopleCount: payload.PeopleCount,
			Tax:         payload.Tax,
		})
		if err != nil {
			return b.WithError(err).Build()
		}
		return b.WithStatus(http.StatusCreated).WithMessage("buffet order created").WithData(order).Build()
	}

	order, err := h.svc.Create(ctx, caller, dto.CreateOrderRequest{
		TableID:    payload.TableID,
		Tax:        payload.Tax,
		OrderItems: payload.OrderItems,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("order created").WithData(order).Build()
}

func (h *Handler) createBuffet(c echo.Context) error {
	b := response.New(c)

	caller, err := request.Identity(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.CreateBuffetOrderRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.createBuffet", trace.WithAttributes(attribute.Int64("table.id", payload.TableID)))
	defer span.End()

	order, err := h.svc.CreateBuffet(ctx, caller, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("buffet order created").WithData(order).Build()
}

func (h *Handler) addItems(c echo.Context) error {
	b := response.New(c)

	caller, err := request.Identity(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.AddOrderItemsRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.addItems", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.AddItems(ctx, caller, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("order updated").WithData(order).Build()
}

func (h *Handler) checkout(c echo.Context) error {
	b := response.New(c)

	caller, err := request.Identity(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.CheckoutOrderRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.checkout", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Checkout(ctx, caller, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("order completed").WithData(order).Build()
}

func (h *Handler) cancel(c echo.Context) error {
	b := response.New(c)

	caller, err := request.Identity(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	return h.cancelAs(c, b, caller)
}

// remove cancels the order; orders are never deleted.
func (h *Handler) remove(c echo.Context) error {
	return h.cancelAs(c, response.New(c), request.OptionalIdentity(c))
}

func (h *Handler) cancelAs(c echo.Context, b *response.Builder, caller auth.Identity) error {
	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.cancel", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Cancel(ctx, caller, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("order cancelled").WithData(order).Build()
}

func (h *Handler) history(c echo.Context) error {
	b := response.New(c)

	caller, err := request.Identity(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "histories.list", trace.WithAttributes(attribute.Int64("user.id", caller.UserID)))
	defer span.End()

	orders, err := h.svc.History(ctx, caller)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(orders).Build()
}

func (h *Handler) searchHistory(c echo.Context) error {
	b := response.New(c)

	caller, err := request.Identity(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "histories.search", trace.WithAttributes(attribute.Int64("user.id", caller.UserID)))
	defer span.End()

	orders, err := h.svc.SearchHistory(ctx, caller, c.Param("uuid"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(orders).Build()
}

func (h *Handler) historyByTable(c echo.Context) error {
	b := response.New(c)

	tableID, err := request.ID(c, "tableId")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "histories.table", trace.WithAttributes(attribute.Int64("table.id", tableID)))
	defer span.End()

	orders, err := h.svc.HistoryByTable(ctx, tableID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(orders).Build()
}
