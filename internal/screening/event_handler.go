package screening

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/richxcame/cod-risk/pkg/eventbus"
	"github.com/richxcame/cod-risk/pkg/logger"
	"go.uber.org/zap"
)

// OrderScreener is the part of the service the event consumer needs
type OrderScreener interface {
	ScreenOrder(ctx context.Context, orderID string) (*Assessment, error)
}

// Subscriber registers event handlers on the bus
type Subscriber interface {
	Subscribe(ctx context.Context, subject, queue string, handler eventbus.Handler) error
}

var _ Subscriber = (*eventbus.Bus)(nil)

// EventHandler screens orders as they are created
type EventHandler struct {
	screener OrderScreener
}

// NewEventHandler creates a new event handler
func NewEventHandler(screener OrderScreener) *EventHandler {
	return &EventHandler{screener: screener}
}

// RegisterSubscriptions subscribes to order events in the screening queue group,
// so each order is screened by one replica
func (h *EventHandler) RegisterSubscriptions(ctx context.Context, sub Subscriber) error {
	if err := sub.Subscribe(ctx, SubjectOrderCreated, QueueGroupScreening, h.HandleOrderCreated); err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectOrderCreated, err)
	}
	return nil
}

// HandleOrderCreated screens the order named in an orders.created event
func (h *EventHandler) HandleOrderCreated(ctx context.Context, event *eventbus.Event) error {
	var data OrderCreatedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}
	if strings.TrimSpace(data.OrderID) == "" {
		return errors.New("order_id missing from event")
	}

	assessment, err := h.screener.ScreenOrder(ctx, data.OrderID)
	if err != nil {
		return fmt.Errorf("screen order %s: %w", data.OrderID, err)
	}

	logger.WithContext(ctx).Debug("screened order from event",
		zap.String("event_id", event.ID),
		zap.String("order_id", data.OrderID),
		zap.String("level", string(assessment.Level)),
	)
	return nil
}
