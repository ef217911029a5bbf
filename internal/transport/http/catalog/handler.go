package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	service "github.com/Additional-Code/bistro/internal/service/catalog"
	"github.com/Additional-Code/bistro/internal/transport/http/middleware"
	"github.com/Additional-Code/bistro/internal/transport/http/request"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/bistro/transport/http/catalog")

// Handler exposes category, product, variant and buffet endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a catalog Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, mw *middleware.Auth) {
	categories := e.Group("/categories")
	categories.GET("", h.listCategories)
	categories.POST("", h.createCategory)
	categories.GET("/:id", h.getCategory)
	categories.PUT("/:id", h.updateCategory)
	categories.DELETE("/:id", h.deleteCategory)

	products := e.Group("/products")
	products.GET("", h.listProducts)
	products.POST("", h.createProduct, mw.Require)
	products.GET("/:id", h.getProduct)
	products.PUT("/:id", h.updateProduct, mw.Require)
	products.DELETE("/:id", h.deleteProduct)
	products.POST("/variant/:id", h.createVariant, mw.Require)

	variants := e.Group("/variants", mw.Require)
	variants.PUT("/:variantId", h.updateVariant)
	variants.DELETE("/:variantId", h.deleteVariant)

	buffets := e.Group("/buffets")
	buffets.GET("", h.listBuffets)
	buffets.POST("", h.createBuffet)
	buffets.GET("/:id", h.getBuffet)
	buffets.PUT("/:id", h.updateBuffet)
	buffets.DELETE("/:id", h.deleteBuffet)
}

func (h *Handler) listCategories(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.list")
	defer span.End()

	categories, err := h.svc.ListCategories(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(categories).Build()
}

func (h *Handler) getCategory(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.get", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	category, err := h.svc.GetCategory(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(category).Build()
}

func (h *Handler) createCategory(c echo.Context) error {
	b := response.New(c)

	var payload dto.CategoryRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.create")
	defer span.End()

	category, err := h.svc.CreateCategory(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("category created").WithData(category).Build()
}

func (h *Handler) updateCategory(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.CategoryRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.update", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	category, err := h.svc.UpdateCategory(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("category updated").WithData(category).Build()
}

func (h *Handler) deleteCategory(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.delete", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	if err := h.svc.DeleteCategory(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("category deleted").Build()
}

func (h *Handler) listProducts(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "products.list")
	defer span.End()

	products, err := h.svc.ListProducts(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(products).Build()
}

func (h *Handler) getProduct(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.get", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product, err := h.svc.GetProduct(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(product).Build()
}

func (h *Handler) createProduct(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateProductRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.create")
	defer span.End()

	product, err := h.svc.CreateProduct(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("product created").WithData(product).Build()
}

func (h *Handler) updateProduct(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.UpdateProductRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.update", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product, err := h.svc.UpdateProduct(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("product updated").WithData(product).Build()
}

func (h *Handler) deleteProduct(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.delete", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if err := h.svc.DeleteProduct(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("product deleted").Build()
}

func (h *Handler) createVariant(c echo.Context) error {
	b := response.New(c)

	productID, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.VariantRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "variants.create", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	variant, err := h.svc.CreateVariant(ctx, productID, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("variant created").WithData(variant).Build()
}

func (h *Handler) updateVariant(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "variantId")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.UpdateVariantRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "variants.update", trace.WithAttributes(attribute.Int64("variant.id", id)))
	defer span.End()

	variant, err := h.svc.UpdateVariant(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("variant updated").WithData(variant).Build()
}

func (h *Handler) deleteVariant(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "variantId")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "variants.delete", trace.WithAttributes(attribute.Int64("variant.id", id)))
	defer span.End()

	if err := h.svc.DeleteVariant(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("variant deleted").Build()
}

func (h *Handler) listBuffets(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "buffets.list")
	defer span.End()

	buffets, err := h.svc.ListBuffets(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(buffets).Build()
}

func (h *Handler) getBuffet(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "buffets.get", trace.WithAttributes(attribute.Int64("buffet.id", id)))
	defer span.End()

	buffet, err := h.svc.GetBuffet(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(buffet).Build()
}

func (h *Handler) createBuffet(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateBuffetRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "buffets.create")
	defer span.End()

	buffet, err := h.svc.CreateBuffet(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("buffet created").WithData(buffet).Build()
}

func (h *Handler) updateBuffet(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.UpdateBuffetRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "buffets.update", trace.WithAttributes(attribute.Int64("buffet.id", id)))
	defer span.End()

	buffet, err := h.svc.UpdateBuffet(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("buffet updated").WithData(buffet).Build()
}

func (h *Handler) deleteBuffet(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "buffets.delete", trace.WithAttributes(attribute.Int64("buffet.id", id)))
	defer span.End()

	if err := h.svc.DeleteBuffet(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("buffet deleted").Build()
}
