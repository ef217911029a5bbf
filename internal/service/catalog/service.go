package catalog

import (
	"context"
	"strings"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/entity"
	catalogrepo "github.com/Additional-Code/bistro/internal/repository/catalog"
	"github.com/Additional-Code/bistro/internal/repository/crud"
	"github.com/Additional-Code/bistro/internal/service/svcutil"
	"github.com/Additional-Code/bistro/internal/validation"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bistro/service/catalog")

// Service manages the menu: categories, products, variants and buffets.
type Service struct {
	db       *bun.DB
	repo     *catalogrepo.Repository
	validate *validation.Validator
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Connections *database.Connections
	Repository  *catalogrepo.Repository
	Validator   *validation.Validator
	Logger      *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		db:       p.Connections.Writer,
		repo:     p.Repository,
		validate: p.Validator,
		logger:   p.Logger,
	}
}

// ListCategories returns all categories by name.
func (s *Service) ListCategories(ctx context.Context) ([]entity.Category, error) {
	categories, err := s.repo.Categories.List(ctx, crud.OrderBy("cat.name ASC"))
	return categories, svcutil.StoreError(err, "category", "list")
}

// GetCategory loads one category.
func (s *Service) GetCategory(ctx context.Context, id int64) (*entity.Category, error) {
	category, err := s.repo.Categories.Get(ctx, id)
	return category, svcutil.StoreError(err, "category", "load")
}

// CreateCategory adds a category with a unique name.
func (s *Service) CreateCategory(ctx context.Context, req dto.CategoryRequest) (*entity.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	category := &entity.Category{Name: req.Name}
	if err := s.repo.Categories.Create(ctx, category); err != nil {
		return nil, svcutil.StoreError(err, "category", "create")
	}
	return category, nil
}

// UpdateCategory renames a category.
func (s *Service) UpdateCategory(ctx context.Context, id int64, req dto.CategoryRequest) (*entity.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	category := &entity.Category{ID: id, Name: req.Name}
	if err := s.repo.Categories.Update(ctx, category, "name"); err != nil {
		return nil, svcutil.StoreError(err, "category", "update")
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return svcutil.StoreError(s.repo.Categories.Delete(ctx, id), "category", "delete")
}

// ListProducts returns all products with category and live variants.
func (s *Service) ListProducts(ctx context.Context) ([]entity.Product, error) {
	opts := append(catalogrepo.ProductDetails(), crud.OrderBy("p.id ASC"))
	products, err := s.repo.Products.List(ctx, opts...)
	return products, svcutil.StoreError(err, "product", "list")
}

// GetProduct loads one product with category and live variants.
func (s *Service) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	product, err := s.repo.Products.Get(ctx, id, catalogrepo.ProductDetails()...)
	return product, svcutil.StoreError(err, "product", "load")
}

// CreateProduct adds a product and its inline variants in one transaction.
func (s *Service) CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*entity.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	for i := range req.Variants {
		req.Variants[i].Name = strings.TrimSpace(req.Variants[i].Name)
		req.Variants[i].Description = strings.TrimSpace(req.Variants[i].Description)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateProduct", trace.WithAttributes(
		attribute.Int64("category.id", req.CategoryID),
		attribute.Int("variants", len(req.Variants)),
	))
	defer span.End()

	product := &entity.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		IsGram:      req.IsGram,
		CategoryID:  req.CategoryID,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repo := s.repo.WithTx(tx)
		if err := s.requireCategory(ctx, repo, req.CategoryID); err != nil {
			return err
		}
		if err := repo.Products.Create(ctx, product); err != nil {
			return svcutil.StoreError(err, "product", "create")
		}
		for _, v := range req.Variants {
			variant := &entity.ProductVariant{
				ProductID:   product.ID,
				Name:        v.Name,
				Description: v.Description,
				Price:       v.Price,
			}
			if err := repo.Variants.Create(ctx, variant); err != nil {
				return svcutil.StoreError(err, "variant", "create")
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("product created", zap.Int64("product_id", product.ID))
	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct patches the supplied product fields.
func (s *Service) UpdateProduct(ctx context.Context, id int64, req dto.UpdateProductRequest) (*entity.Product, error) {
	req.Name = svcutil.TrimPtr(req.Name)
	req.Description = svcutil.TrimPtr(req.Description)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	product, err := s.repo.Products.Get(ctx, id)
	if err != nil {
		return nil, svcutil.StoreError(err, "product", "load")
	}

	var columns []string
	if req.Name != nil {
		product.Name = *req.Name
		columns = append(columns, "name")
	}
	if req.Description != nil {
		product.Description = *req.Description
		columns = append(columns, "description")
	}
	if req.Price != nil {
		product.Price = *req.Price
		columns = append(columns, "price")
	}
	if req.IsGram != nil {
		product.IsGram = *req.IsGram
		columns = append(columns, "is_gram")
	}
	if req.CategoryID != nil {
		if err := s.requireCategory(ctx, s.repo, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *req.CategoryID
		columns = append(columns, "category_id")
	}
	if len(columns) == 0 {
		return s.GetProduct(ctx, id)
	}

	if err := s.repo.Products.Update(ctx, product, columns...); err != nil {
		return nil, svcutil.StoreError(err, "product", "update")
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return svcutil.StoreError(s.repo.Products.Delete(ctx, id), "product", "delete")
}

// CreateVariant adds a variant under an existing product.
func (s *Service) CreateVariant(ctx context.Context, productID int64, req dto.VariantRequest) (*entity.ProductVariant, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.Products.Exists(ctx, productID)
	if err != nil {
		return nil, svcutil.StoreError(err, "product", "load")
	}
	if !exists {
		return nil, errorbank.NotFound("product not found")
	}

	variant := &entity.ProductVariant{
		ProductID:   productID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
	if err := s.repo.Variants.Create(ctx, variant); err != nil {
		return nil, svcutil.StoreError(err, "variant", "create")
	}
	return variant, nil
}

// UpdateVariant patches a live variant.
func (s *Service) UpdateVariant(ctx context.Context, id int64, req dto.UpdateVariantRequest) (*entity.ProductVariant, error) {
	req.Name = svcutil.TrimPtr(req.Name)
	req.Description = svcutil.TrimPtr(req.Description)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	variant, err := s.repo.Variants.Get(ctx, id)
	if err != nil {
		return nil, svcutil.StoreError(err, "variant", "load")
	}

	var columns []string
	if req.Name != nil {
		variant.Name = *req.Name
		columns = append(columns, "name")
	}
	if req.Description != nil {
		variant.Description = *req.Description
		columns = append(columns, "description")
	}
	if req.Price != nil {
		variant.Price = *req.Price
		columns = append(columns, "price")
	}
	if len(columns) == 0 {
		return variant, nil
	}

	if err := s.repo.Variants.Update(ctx, variant, columns...); err != nil {
		return nil, svcutil.StoreError(err, "variant", "update")
	}
	return variant, nil
}

// DeleteVariant soft deletes a variant so past order items keep their reference.
func (s *Service) DeleteVariant(ctx context.Context, id int64) error {
	return svcutil.StoreError(s.repo.Variants.Delete(ctx, id), "variant", "delete")
}

// ListBuffets returns live buffets.
func (s *Service) ListBuffets(ctx context.Context) ([]entity.Buffet, error) {
	buffets, err := s.repo.Buffets.List(ctx, crud.OrderBy("bf.id ASC"))
	return buffets, svcutil.StoreError(err, "buffet", "list")
}

// GetBuffet loads a live buffet.
func (s *Service) GetBuffet(ctx context.Context, id int64) (*entity.Buffet, error) {
	buffet, err := s.repo.Buffets.Get(ctx, id)
	return buffet, svcutil.StoreError(err, "buffet", "load")
}

// CreateBuffet adds a buffet package.
func (s *Service) CreateBuffet(ctx context.Context, req dto.CreateBuffetRequest) (*entity.Buffet, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	buffet := &entity.Buffet{Name: req.Name, Description: req.Description, Price: req.Price}
	if err := s.repo.Buffets.Create(ctx, buffet); err != nil {
		return nil, svcutil.StoreError(err, "buffet", "create")
	}
	return buffet, nil
}

// UpdateBuffet patches a live buffet.
func (s *Service) UpdateBuffet(ctx context.Context, id int64, req dto.UpdateBuffetRequest) (*entity.Buffet, error) {
	req.Name = svcutil.TrimPtr(req.Name)
	req.Description = svcutil.TrimPtr(req.Description)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	buffet, err := s.repo.Buffets.Get(ctx, id)
	if err != nil {
		return nil, svcutil.StoreError(err, "buffet", "load")
	}

	var columns []string
	if req.Name != nil {
		buffet.Name = *req.Name
		columns = append(columns, "name")
	}
	if req.Description != nil {
		buffet.Description = *req.Description
		columns = append(columns, "description")
	}
	if req.Price != nil {
		buffet.Price = *req.Price
		columns = append(columns, "price")
	}
	if len(columns) == 0 {
		return buffet, nil
	}

	if err := s.repo.Buffets.Update(ctx, buffet, columns...); err != nil {
		return nil, svcutil.StoreError(err, "buffet", "update")
	}
	return buffet, nil
}

// DeleteBuffet soft deletes a buffet so past buffet orders keep their reference.
func (s *Service) DeleteBuffet(ctx context.Context, id int64) error {
	return svcutil.StoreError(s.repo.Buffets.Delete(ctx, id), "buffet", "delete")
}

func (s *Service) requireCategory(ctx context.Context, repo *catalogrepo.Repository, id int64) error {
	exists, err := repo.Categories.Exists(ctx, id)
	if err != nil {
		return svcutil.StoreError(err, "category", "load")
	}
	if !exists {
		return errorbank.NotFound("category not found")
	}
	return nil
}
