package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/messaging"
	ordersvc "github.com/Additional-Code/bistro/internal/service/order"
	"github.com/Additional-Code/bistro/internal/worker"
)

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

func message(t *testing.T, eventType string) messaging.Message {
	t.Helper()
	body, err := json.Marshal(ordersvc.Event{
		ID:      "evt-1",
		Type:    eventType,
		Payload: ordersvc.EventPayload{OrderID: 7, Status: "completed", GrandTotal: 5500},
	})
	require.NoError(t, err)
	return messaging.Message{
		Topic:   "bistro.orders",
		Key:     []byte("7"),
		Value:   body,
		Headers: map[string]string{messaging.HeaderEventType: eventType},
	}
}

func TestReportsRefreshOnlyOnCompletion(t *testing.T) {
	inv := &countingInvalidator{}
	engine := worker.NewEngine(worker.Params{
		Logger: zap.NewNop(),
		Registrations: []worker.HandlerRegistration{
			NewAuditHandler(zap.NewNop(), config.Config{Messaging: config.Messaging{Kafka: config.Kafka{Topic: "bistro.orders"}}}),
			reportRefresh(inv, zap.NewNop(), "bistro.orders"),
		},
	})
	ctx := context.Background()

	require.NoError(t, engine.Dispatch(ctx, message(t, ordersvc.EventCreated)))
	require.NoError(t, engine.Dispatch(ctx, message(t, ordersvc.EventCancelled)))
	assert.Equal(t, 0, inv.calls)

	require.NoError(t, engine.Dispatch(ctx, message(t, ordersvc.EventCompleted)))
	assert.Equal(t, 1, inv.calls)
}

func TestReportRefreshFailureIsRetried(t *testing.T) {
	inv := &countingInvalidator{err: errors.New("redis down")}
	reg := reportRefresh(inv, zap.NewNop(), "bistro.orders")

	err := reg.Handler(context.Background(), message(t, ordersvc.EventCompleted))
	assert.Error(t, err)
	assert.Equal(t, 1, inv.calls)
}

func TestAuditDropsMalformedPayloads(t *testing.T) {
	reg := NewAuditHandler(zap.NewNop(), config.Config{})
	err := reg.Handler(context.Background(), messaging.Message{Value: []byte("{not json")})
	assert.NoError(t, err)
}
