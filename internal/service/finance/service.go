package finance

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/auth"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/repository/crud"
	financerepo "github.com/Additional-Code/bistro/internal/repository/finance"
	"github.com/Additional-Code/bistro/internal/service/svcutil"
	"github.com/Additional-Code/bistro/internal/storage"
	"github.com/Additional-Code/bistro/internal/validation"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bistro/service/finance")

// Service manages payment methods and expenses.
type Service struct {
	repo     *financerepo.Repository
	uploads  *storage.Uploader
	validate *validation.Validator
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Config     config.Config
	Repository *financerepo.Repository
	Uploader   *storage.Uploader
	Validator  *validation.Validator
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	loc := p.Config.Reporting.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     p.Repository,
		uploads:  p.Uploader,
		validate: p.Validator,
		logger:   p.Logger,
		loc:      loc,
		now:      time.Now,
	}
}

// ListPaymentMethods returns every payment method by name.
func (s *Service) ListPaymentMethods(ctx context.Context) ([]entity.PaymentMethod, error) {
	methods, err := s.repo.PaymentMethods.List(ctx, crud.OrderBy("pm.name ASC"))
	return methods, svcutil.StoreError(err, "payment method", "list")
}

// GetPaymentMethod loads one payment method.
func (s *Service) GetPaymentMethod(ctx context.Context, id int64) (*entity.PaymentMethod, error) {
	method, err := s.repo.PaymentMethods.Get(ctx, id)
	return method, svcutil.StoreError(err, "payment method", "load")
}

// CreatePaymentMethod stores the uploaded image and records the method with the
// image's absolute URL under baseURL.
func (s *Service) CreatePaymentMethod(ctx context.Context, req dto.PaymentMethodRequest, image io.Reader, baseURL string) (*entity.PaymentMethod, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if image == nil {
		return nil, errorbank.BadRequest("validation failed", errorbank.WithFields(map[string]string{
			"image": "image is required",
		}))
	}

	ctx, span := serviceTracer.Start(ctx, "FinanceService.CreatePaymentMethod")
	defer span.End()

	publicPath, err := s.save(ctx, image)
	if err != nil {
		return nil, err
	}

	method := &entity.PaymentMethod{Name: req.Name, Image: absoluteURL(baseURL, publicPath)}
	if err := s.repo.PaymentMethods.Create(ctx, method); err != nil {
		s.discard(publicPath)
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, svcutil.StoreError(err, "payment method", "create")
	}
	return method, nil
}

// UpdatePaymentMethod renames a method and, when image is non-nil, replaces its image.
func (s *Service) UpdatePaymentMethod(ctx context.Context, id int64, req dto.UpdatePaymentMethodRequest, image io.Reader, baseURL string) (*entity.PaymentMethod, error) {
	req.Name = svcutil.TrimPtr(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "FinanceService.UpdatePaymentMethod", trace.WithAttributes(attribute.Int64("payment_method.id", id)))
	defer span.End()

	method, err := s.repo.PaymentMethods.Get(ctx, id)
	if err != nil {
		return nil, svcutil.StoreError(err, "payment method", "load")
	}

	var (
		columns  []string
		oldImage string
		newPath  string
	)
	if req.Name != nil {
		method.Name = *req.Name
		columns = append(columns, "name")
	}
	if image != nil {
		newPath, err = s.save(ctx, image)
		if err != nil {
			return nil, err
		}
		oldImage = method.Image
		method.Image = absoluteURL(baseURL, newPath)
		columns = append(columns, "image")
	}
	if len(columns) == 0 {
		return method, nil
	}

	if err := s.repo.PaymentMethods.Update(ctx, method, columns...); err != nil {
		if newPath != "" {
			s.discard(newPath)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, svcutil.StoreError(err, "payment method", "update")
	}
	if oldImage != "" {
		s.discard(oldImage)
	}
	return method, nil
}

// DeletePaymentMethod removes a method and its stored image.
func (s *Service) DeletePaymentMethod(ctx context.Context, id int64) error {
	method, err := s.repo.PaymentMethods.Get(ctx, id)
	if err != nil {
		return svcutil.StoreError(err, "payment method", "load")
	}
	if err := s.repo.PaymentMethods.Delete(ctx, id); err != nil {
		return svcutil.StoreError(err, "payment method", "delete")
	}
	s.discard(method.Image)
	return nil
}

func (s *Service) save(ctx context.Context, image io.Reader) (string, error) {
	publicPath, err := s.uploads.Save(ctx, image)
	switch {
	case err == nil:
		return publicPath, nil
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrTooLarge), errors.Is(err, storage.ErrEmpty):
		return "", errorbank.BadRequest("validation failed",
			errorbank.WithCause(err),
			errorbank.WithFields(map[string]string{"image": err.Error()}),
		)
	default:
		return "", errorbank.Internal("failed to store image", errorbank.WithCause(err))
	}
}

func (s *Service) discard(image string) {
	if err := s.uploads.Remove(image); err != nil {
		s.logger.Warn("failed to remove stored image", zap.String("image", image), zap.Error(err))
	}
}

func absoluteURL(baseURL, publicPath string) string {
	return strings.TrimSuffix(baseURL, "/") + publicPath
}

// ListExpenses returns every expense, newest first.
func (s *Service) ListExpenses(ctx context.Context) ([]entity.Expense, error) {
	expenses, err := s.repo.Expenses.List(ctx, crud.OrderBy("e.created_at DESC, e.id DESC"))
	return expenses, svcutil.StoreError(err, "expense", "list")
}

// GetExpense loads one expense.
func (s *Service) GetExpense(ctx context.Context, id int64) (*entity.Expense, error) {
	expense, err := s.repo.Expenses.Get(ctx, id)
	return expense, svcutil.StoreError(err, "expense", "load")
}

// CreateExpense records an expense on behalf of the caller.
func (s *Service) CreateExpense(ctx context.Context, id auth.Identity, req dto.CreateExpenseRequest) (*entity.Expense, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	req.Note = strings.TrimSpace(req.Note)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	expense := &entity.Expense{
		UserID:   id.UserID,
		Title:    req.Title,
		Amount:   req.Amount,
		Category: req.Category,
		Note:     req.Note,
	}
	if err := s.repo.Expenses.Create(ctx, expense); err != nil {
		return nil, svcutil.StoreError(err, "expense", "create")
	}
	return expense, nil
}

// UpdateExpense patches an expense.
func (s *Service) UpdateExpense(ctx context.Context, id int64, req dto.UpdateExpenseRequest) (*entity.Expense, error) {
	req.Title = svcutil.TrimPtr(req.Title)
	req.Category = svcutil.TrimPtr(req.Category)
	req.Note = svcutil.TrimPtr(req.Note)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	expense, err := s.repo.Expenses.Get(ctx, id)
	if err != nil {
		return nil, svcutil.StoreError(err, "expense", "load")
	}

	var columns []string
	if req.Title != nil {
		expense.Title = *req.Title
		columns = append(columns, "title")
	}
	if req.Amount != nil {
		expense.Amount = *req.Amount
		columns = append(columns, "amount")
	}
	if req.Category != nil {
		expense.Category = *req.Category
		columns = append(columns, "category")
	}
	if req.Note != nil {
		expense.Note = *req.Note
		columns = append(columns, "note")
	}
	if len(columns) == 0 {
		return expense, nil
	}

	if err := s.repo.Expenses.Update(ctx, expense, columns...); err != nil {
		return nil, svcutil.StoreError(err, "expense", "update")
	}
	return expense, nil
}

// DeleteExpense removes an expense.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	return svcutil.StoreError(s.repo.Expenses.Delete(ctx, id), "expense", "delete")
}

// CurrentMonthTotal sums the caller's expenses in the current calendar month.
func (s *Service) CurrentMonthTotal(ctx context.Context, id auth.Identity) (*dto.MonthlyExpense, error) {
	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 1, 0)

	total, err := s.repo.SumExpenses(ctx, id.UserID, start, end)
	if err != nil {
		return nil, errorbank.Internal("failed to sum expenses", errorbank.WithCause(err))
	}
	return &dto.MonthlyExpense{Month: start.Format("2006-01"), Total: total}, nil
}
