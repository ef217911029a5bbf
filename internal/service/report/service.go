package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/cache"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/dto"
	orderrepo "github.com/Additional-Code/bistro/internal/repository/order"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bistro/service/report")

// Report windows.
const (
	Daily   = "daily"
	Weekly  = "weekly"
	Monthly = "monthly"
)

// TopProductsLimit caps the product ranking of a sales report.
const TopProductsLimit = 10

var windows = []string{Daily, Weekly, Monthly}

// Service aggregates completed orders into sales reports.
type Service struct {
	orders   *orderrepo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders *orderrepo.Repository
	Cache  cache.Store
	Config config.Config
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	loc := p.Config.Reporting.Location
	if loc == nil {
		loc = time.UTC
	}
	store := p.Cache
	if store == nil {
		store = cache.Noop()
	}
	return &Service{
		orders:   p.Orders,
		cache:    store,
		cacheTTL: p.Config.Reporting.CacheTTL,
		loc:      loc,
		logger:   p.Logger,
		now:      time.Now,
	}
}

// Window returns the [start, end) bounds of the period of kind containing now, in loc.
// Weeks start on Sunday.
func Window(kind string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	now = now.In(loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	switch kind {
	case Daily:
		return day, day.AddDate(0, 0, 1), nil
	case Weekly:
		start := day.AddDate(0, 0, -int(day.Weekday()))
		return start, start.AddDate(0, 0, 7), nil
	case Monthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown report window %q", kind)
	}
}

// Growth is the percentage change from prev to cur, rounded to two decimals.
// With nothing to compare against it is 100 when cur is positive, else 0.
func Growth(cur, prev int64) float64 {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	pct := float64(cur-prev) / float64(prev) * 100
	return math.Round(pct*100) / 100
}

// SalesReport summarises completed orders created in the current window.
// An empty kind means daily.
func (s *Service) SalesReport(ctx context.Context, kind string) (*dto.SalesReport, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = Daily
	}

	start, end, err := Window(kind, s.now(), s.loc)
	if err != nil {
		return nil, errorbank.BadRequest("validation failed", errorbank.WithFields(map[string]string{
			"type": "type must be one of [daily weekly monthly]",
		}))
	}

	ctx, span := serviceTracer.Start(ctx, "ReportService.SalesReport", trace.WithAttributes(
		attribute.String("report.type", kind),
		attribute.String("report.start", start.Format(time.RFC3339)),
	))
	defer span.End()

	key := salesKey(kind, start)
	if cached, err := cache.GetJSON[dto.SalesReport](ctx, s.cache, key); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	}

	summary, err := s.orders.Summary(ctx, start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to build sales report", errorbank.WithCause(err))
	}
	ranked, err := s.orders.TopProducts(ctx, start, end, TopProductsLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to build sales report", errorbank.WithCause(err))
	}

	report := &dto.SalesReport{
		Type:        kind,
		Start:       start,
		End:         end,
		TotalSales:  summary.TotalSales,
		TotalOrders: summary.TotalOrders,
		TopProducts: make([]dto.TopProduct, 0, len(ranked)),
	}
	for _, row := range ranked {
		report.TopProducts = append(report.TopProducts, dto.TopProduct{
			ProductID: row.ProductID,
			Name:      row.Name,
			Quantity:  row.Quantity,
			Revenue:   row.Revenue,
		})
	}

	if err := cache.SetJSON(ctx, s.cache, key, report, s.cacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return report, nil
}

// MonthlyComparison compares this month's completed sales with last month's.
func (s *Service) MonthlyComparison(ctx context.Context) (*dto.MonthlySalesReport, error) {
	start, end, _ := Window(Monthly, s.now(), s.loc)
	prevStart := start.AddDate(0, -1, 0)

	ctx, span := serviceTracer.Start(ctx, "ReportService.MonthlyComparison", trace.WithAttributes(
		attribute.String("report.month", start.Format("2006-01")),
	))
	defer span.End()

	key := monthlyKey(start)
	if cached, err := cache.GetJSON[dto.MonthlySalesReport](ctx, s.cache, key); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	}

	current, err := s.orders.Summary(ctx, start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to build monthly report", errorbank.WithCause(err))
	}
	previous, err := s.orders.Summary(ctx, prevStart, start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to build monthly report", errorbank.WithCause(err))
	}

	report := &dto.MonthlySalesReport{
		CurrentMonth: dto.PeriodTotals{
			Month:       start.Format("2006-01"),
			TotalSales:  current.TotalSales,
			TotalOrders: current.TotalOrders,
		},
		PreviousMonth: dto.PeriodTotals{
			Month:       prevStart.Format("2006-01"),
			TotalSales:  previous.TotalSales,
			TotalOrders: previous.TotalOrders,
		},
		SalesGrowth:  Growth(current.TotalSales, previous.TotalSales),
		OrdersGrowth: Growth(current.TotalOrders, previous.TotalOrders),
	}

	if err := cache.SetJSON(ctx, s.cache, key, report, s.cacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return report, nil
}

// Invalidate drops the cached reports of the current windows.
func (s *Service) Invalidate(ctx context.Context) error {
	now := s.now()
	keys := make([]string, 0, len(windows)+1)
	for _, kind := range windows {
		start, _, _ := Window(kind, now, s.loc)
		keys = append(keys, salesKey(kind, start))
	}
	monthStart, _, _ := Window(Monthly, now, s.loc)
	keys = append(keys, monthlyKey(monthStart))

	if err := s.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("invalidate reports: %w", err)
	}
	return nil
}

func salesKey(kind string, start time.Time) string {
	return fmt.Sprintf("reports:sales:%s:%d", kind, start.Unix())
}

func monthlyKey(start time.Time) string {
	return fmt.Sprintf("reports:monthly:%d", start.Unix())
}
