package finance

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	service "github.com/Additional-Code/bistro/internal/service/finance"
	"github.com/Additional-Code/bistro/internal/transport/http/middleware"
	"github.com/Additional-Code/bistro/internal/transport/http/request"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/bistro/transport/http/finance")

// imageField is the multipart field carrying a payment method image.
const imageField = "image"

// Handler exposes payment method and expense endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a finance Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, mw *middleware.Auth) {
	methods := e.Group("/payment-methods")
	methods.GET("", h.listPaymentMethods)
	methods.POST("", h.createPaymentMethod)
	methods.GET("/:id", h.getPaymentMethod)
	methods.PUT("/:id", h.updatePaymentMethod)
	methods.DELETE("/:id", h.deletePaymentMethod)

	expenses := e.Group("/expense")
	expenses.GET("", h.listExpenses)
	expenses.POST("", h.createExpense, mw.Require)
	expenses.GET("/:id", h.getExpense)
	expenses.PUT("/:id", h.updateExpense)
	expenses.DELETE("/:id", h.deleteExpense)

	e.GET("/current-month-expense", h.currentMonthExpense, mw.Require)
}

func (h *Handler) listPaymentMethods(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "payment_methods.list")
	defer span.End()

	methods, err := h.svc.ListPaymentMethods(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(methods).Build()
}

func (h *Handler) getPaymentMethod(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "payment_methods.get", trace.WithAttributes(attribute.Int64("payment_method.id", id)))
	defer span.End()

	method, err := h.svc.GetPaymentMethod(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(method).Build()
}

func (h *Handler) createPaymentMethod(c echo.Context) error {
	b := response.New(c)

	image, closeImage, err := formImage(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	defer closeImage()

	ctx, span := httpTracer.Start(c.Request().Context(), "payment_methods.create")
	defer span.End()

	payload := dto.PaymentMethodRequest{Name: c.FormValue("name")}
	method, err := h.svc.CreatePaymentMethod(ctx, payload, image, request.BaseURL(c))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("payment method created").WithData(method).Build()
}

func (h *Handler) updatePaymentMethod(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	image, closeImage, err := formImage(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	defer closeImage()

	ctx, span := httpTracer.Start(c.Request().Context(), "payment_methods.update", trace.WithAttributes(attribute.Int64("payment_method.id", id)))
	defer span.End()

	var payload dto.UpdatePaymentMethodRequest
	if form, err := c.FormParams(); err == nil && form.Has("name") {
		name := form.Get("name")
		payload.Name = &name
	}

	method, err := h.svc.UpdatePaymentMethod(ctx, id, payload, image, request.BaseURL(c))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("payment method updated").WithData(method).Build()
}

func (h *Handler) deletePaymentMethod(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "payment_methods.delete", trace.WithAttributes(attribute.Int64("payment_method.id", id)))
	defer span.End()

	if err := h.svc.DeletePaymentMethod(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("payment method deleted").Build()
}

// formImage opens the uploaded image, returning a nil reader when none was sent.
func formImage(c echo.Context) (io.Reader, func(), error) {
	noop := func() {}
	header, err := c.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, errorbank.BadRequest("invalid multipart form", errorbank.WithCause(err))
	}
	file, err := header.Open()
	if err != nil {
		return nil, noop, errorbank.BadRequest("unreadable image upload", errorbank.WithCause(err))
	}
	return file, func() { _ = file.Close() }, nil
}

func (h *Handler) listExpenses(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "expenses.list")
	defer span.End()

	expenses, err := h.svc.ListExpenses(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(expenses).Build()
}

func (h *Handler) getExpense(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "expenses.get", trace.WithAttributes(attribute.Int64("expense.id", id)))
	defer span.End()

	expense, err := h.svc.GetExpense(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(expense).Build()
}

func (h *Handler) createExpense(c echo.Context) error {
	b := response.New(c)

	caller, err := request.Identity(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.CreateExpenseRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "expenses.create")
	defer span.End()

	expense, err := h.svc.CreateExpense(ctx, caller, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("expense created").WithData(expense).Build()
}

func (h *Handler) updateExpense(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.UpdateExpenseRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "expenses.update", trace.WithAttributes(attribute.Int64("expense.id", id)))
	defer span.End()

	expense, err := h.svc.UpdateExpense(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("expense updated").WithData(expense).Build()
}

func (h *Handler) deleteExpense(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "expenses.delete", trace.WithAttributes(attribute.Int64("expense.id", id)))
	defer span.End()

	if err := h.svc.DeleteExpense(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("expense deleted").Build()
}

func (h *Handler) currentMonthExpense(c echo.Context) error {
	b := response.New(c)

	caller, err := request.Identity(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "expenses.current_month", trace.WithAttributes(attribute.Int64("user.id", caller.UserID)))
	defer span.End()

	total, err := h.svc.CurrentMonthTotal(ctx, caller)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(total).Build()
}
