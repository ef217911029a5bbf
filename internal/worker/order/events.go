package order

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/messaging"
	ordersvc "github.com/Additional-Code/bistro/internal/service/order"
	reportsvc "github.com/Additional-Code/bistro/internal/service/report"
	"github.com/Additional-Code/bistro/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/bistro/worker/order")

// Module registers order event handlers with the worker engine.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewAuditHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
		fx.Annotate(
			NewReportRefreshHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// Invalidator drops cached report data.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// NewAuditHandler logs every order event seen on the bus.
func NewAuditHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.orders.audit", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		event, err := ordersvc.DecodeEvent(msg)
		if err != nil {
			logger.Error("failed to decode order event", zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			// Malformed payloads are dropped rather than redelivered forever.
			return nil
		}
		span.SetAttributes(attribute.String("event.type", event.Type), attribute.Int64("order.id", event.Payload.OrderID))

		logger.Info("order event processed",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Int64("order_id", event.Payload.OrderID),
			zap.String("status", event.Payload.Status),
			zap.Int64("grand_total", event.Payload.GrandTotal),
		)
		return nil
	}

	return worker.HandlerRegistration{
		Name:    "orders.audit",
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}

// NewReportRefreshHandler drops cached sales reports when an order completes,
// covering API replicas whose cache was not touched by the checkout.
func NewReportRefreshHandler(reports *reportsvc.Service, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	return reportRefresh(reports, logger, cfg.Messaging.Kafka.Topic)
}

func reportRefresh(reports Invalidator, logger *zap.Logger, topic string) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.refresh_reports", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		if err := reports.Invalidate(ctx); err != nil {
			logger.Warn("report cache invalidation failed", zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalidate")
			return err
		}
		return nil
	}

	return worker.HandlerRegistration{
		Name:    "orders.refresh_reports",
		Topic:   topic,
		Events:  []string{ordersvc.EventCompleted},
		Handler: handler,
	}
}
