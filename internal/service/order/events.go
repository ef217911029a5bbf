package order

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/messaging"
)

// Order event types.
const (
	EventCreated    = "order.created"
	EventItemsAdded = "order.items_added"
	EventCompleted  = "order.completed"
	EventCancelled  = "order.cancelled"
)

// HeaderEventType carries the event type alongside the payload.
const HeaderEventType = messaging.HeaderEventType

// Event is the envelope published for every order transition.
type Event struct {
	ID         string       `json:"event_id"`
	Type       string       `json:"event_type"`
	OccurredAt time.Time    `json:"occurred_at"`
	Producer   string       `json:"producer"`
	Payload    EventPayload `json:"payload"`
}

// EventPayload is the order state after the transition.
type EventPayload struct {
	OrderID         int64  `json:"order_id"`
	UUID            string `json:"uuid"`
	UserID          int64  `json:"user_id"`
	TableID         int64  `json:"table_id"`
	Status          string `json:"status"`
	IsBuffet        bool   `json:"is_buffet"`
	Tax             int64  `json:"tax"`
	TotalAmount     int64  `json:"total_amount"`
	GrandTotal      int64  `json:"grand_total"`
	PaymentMethodID *int64 `json:"payment_method_id,omitempty"`
}

// DecodeEvent parses an order event from a consumed message.
func DecodeEvent(msg messaging.Message) (Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return Event{}, fmt.Errorf("decode order event: %w", err)
	}
	if event.Type == "" {
		event.Type = msg.Headers[HeaderEventType]
	}
	return event, nil
}

func newEvent(eventType, producer string, order *entity.Order, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: at.UTC(),
		Producer:   producer,
		Payload: EventPayload{
			OrderID:         order.ID,
			UUID:            order.UUID,
			UserID:          order.UserID,
			TableID:         order.TableID,
			Status:          order.Status,
			IsBuffet:        order.IsBuffet,
			Tax:             order.Tax,
			TotalAmount:     order.TotalAmount,
			GrandTotal:      order.GrandTotal,
			PaymentMethodID: order.PaymentMethodID,
		},
	}
}

// publish is best effort: the write already committed, so failures are only logged.
func (s *Service) publish(ctx context.Context, eventType string, order *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := newEvent(eventType, s.messaging.producer, order, s.now())
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order event", zap.String("event_type", eventType), zap.Error(err))
		return
	}

	err = s.publisher.Publish(ctx, messaging.Outbound{
		Key:     []byte(strconv.FormatInt(order.ID, 10)),
		Value:   payload,
		Headers: map[string]string{HeaderEventType: eventType},
	})
	if err != nil {
		s.logger.Error("publish order event",
			zap.String("event_type", eventType),
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}
}
