package venue

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	service "github.com/Additional-Code/bistro/internal/service/venue"
	"github.com/Additional-Code/bistro/internal/transport/http/middleware"
	"github.com/Additional-Code/bistro/internal/transport/http/request"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/bistro/transport/http/venue")

// Handler exposes table and reservation endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a venue Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, mw *middleware.Auth) {
	tables := e.Group("/tables")
	tables.GET("", h.listTables, mw.Require)
	tables.POST("", h.createTable, mw.Require)
	tables.GET("/:id", h.getTable)
	tables.PUT("/:id", h.updateTable)
	tables.DELETE("/:id", h.deleteTable)

	reservations := e.Group("/reservations")
	reservations.GET("", h.listReservations)
	reservations.GET("/", h.listReservations)
	reservations.POST("", h.createReservation)
	reservations.POST("/", h.createReservation)
	reservations.GET("/:id", h.getReservation)
	reservations.DELETE("/:id", h.deleteReservation)
}

func (h *Handler) listTables(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.list")
	defer span.End()

	tables, err := h.svc.ListTables(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(tables).Build()
}

func (h *Handler) getTable(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.get", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	table, err := h.svc.GetTable(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(table).Build()
}

func (h *Handler) createTable(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateTableRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.create")
	defer span.End()

	table, err := h.svc.CreateTable(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("table created").WithData(table).Build()
}

func (h *Handler) updateTable(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.UpdateTableRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.update", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	table, err := h.svc.UpdateTable(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("table updated").WithData(table).Build()
}

func (h *Handler) deleteTable(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.delete", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	if err := h.svc.DeleteTable(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("table deleted").Build()
}

func (h *Handler) listReservations(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "reservations.list")
	defer span.End()

	reservations, err := h.svc.ListReservations(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(reservations).Build()
}

func (h *Handler) getReservation(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reservations.get", trace.WithAttributes(attribute.Int64("reservation.id", id)))
	defer span.End()

	reservation, err := h.svc.GetReservation(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(reservation).Build()
}

func (h *Handler) createReservation(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateReservationRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reservations.create")
	defer span.End()

	reservation, err := h.svc.CreateReservation(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("reservation created").WithData(reservation).Build()
}

func (h *Handler) deleteReservation(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reservations.delete", trace.WithAttributes(attribute.Int64("reservation.id", id)))
	defer span.End()

	if err := h.svc.DeleteReservation(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("reservation deleted").Build()
}
