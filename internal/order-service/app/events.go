package app

import (
	"time"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
)

// LifecycleTopic receives one LifecycleEvent per committed audit entry,
// keyed by order id.
const LifecycleTopic = "orders.lifecycle"

type LifecycleEvent struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	CustomerID  string    `json:"customer_id,omitempty"`
	Action      string    `json:"action"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to,omitempty"`
	Description string    `json:"description"`
	TraceID     string    `json:"trace_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func lifecycleEventFrom(t domain.Transaction) LifecycleEvent {
	ev := LifecycleEvent{
		ID:          t.ID,
		OrderID:     t.OrderID,
		CustomerID:  t.CustomerID,
		Action:      string(t.Action),
		Description: t.Description,
		TraceID:     t.TraceID,
		OccurredAt:  t.Timestamp,
	}
	if t.Change != nil {
		ev.From = string(t.Change.From)
		ev.To = string(t.Change.To)
	}
	return ev
}
