package report

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	service "github.com/Additional-Code/bistro/internal/service/report"
	"github.com/Additional-Code/bistro/internal/transport/http/middleware"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/bistro/transport/http/report")

// Handler exposes sales reports over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a report Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, mw *middleware.Auth) {
	e.GET("/reports", h.sales, mw.Require)
	e.GET("/monthly-reports", h.monthly, mw.Require)
}

func (h *Handler) sales(c echo.Context) error {
	b := response.New(c)

	kind := c.QueryParam("type")
	ctx, span := httpTracer.Start(c.Request().Context(), "reports.sales", trace.WithAttributes(attribute.String("report.type", kind)))
	defer span.End()

	report, err := h.svc.SalesReport(ctx, kind)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(report).Build()
}

func (h *Handler) monthly(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.monthly")
	defer span.End()

	report, err := h.svc.MonthlyComparison(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(report).Build()
}
