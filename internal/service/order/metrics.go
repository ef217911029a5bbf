package order

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/observability"
)

const meterName = "github.com/Additional-Code/bistro/service/order"

type instruments struct {
	transitions metric.Int64Counter
	grandTotals metric.Int64Histogram
}

func newInstruments(meter metric.Meter, logger *zap.Logger) *instruments {
	transitions, err := meter.Int64Counter("bistro.orders.transitions",
		metric.WithDescription("Order lifecycle transitions by resulting status."),
	)
	if err != nil {
		logger.Warn("order transition counter unavailable", zap.Error(err))
	}
	grandTotals, err := meter.Int64Histogram("bistro.orders.checkout_grand_total",
		metric.WithDescription("Grand total of checked out orders in minor currency units."),
		metric.WithUnit(observability.UnitMinorCurrency),
	)
	if err != nil {
		logger.Warn("order grand total histogram unavailable", zap.Error(err))
	}
	return &instruments{transitions: transitions, grandTotals: grandTotals}
}

func (m *instruments) transition(ctx context.Context, status string, buffet bool) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
		attribute.Bool("buffet", buffet),
	))
}

func (m *instruments) checkout(ctx context.Context, grandTotal int64) {
	if m == nil || m.grandTotals == nil {
		return
	}
	m.grandTotals.Record(ctx, grandTotal)
}
