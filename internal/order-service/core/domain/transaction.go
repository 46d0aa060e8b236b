package domain

import (
	"fmt"
	"time"
)

// Action is the closed set of audit entry kinds.
type Action string

const (
	ActionCreateOrder    Action = "CREATE_ORDER"
	ActionUpdateOrder    Action = "UPDATE_ORDER"
	ActionStateDraft     Action = "STATE_DRAFT"
	ActionStatePlaced    Action = "STATE_PLACED"
	ActionStateFulfilled Action = "STATE_FULFILLED"
	ActionStateCancelled Action = "STATE_CANCELLED"
)

var stateActions = map[OrderState]Action{
	StateDraft:     ActionStateDraft,
	StatePlaced:    ActionStatePlaced,
	StateFulfilled: ActionStateFulfilled,
	StateCancelled: ActionStateCancelled,
}

func (a Action) Valid() bool {
	switch a {
	case ActionCreateOrder, ActionUpdateOrder:
		return true
	}
	for _, v := range stateActions {
		if a == v {
			return true
		}
	}
	return false
}

// StateChange is the structured payload of a STATE_* entry.
type StateChange struct {
	From OrderState `json:"from"`
	To   OrderState `json:"to"`
}

// AuditEvent is what the lifecycle engine asks the audit log to record.
// Build it with OrderCreated, OrderUpdated or StateChanged.
type AuditEvent struct {
	Action Action
	Change *StateChange
}

func OrderCreated() AuditEvent { return AuditEvent{Action: ActionCreateOrder} }

func OrderUpdated() AuditEvent { return AuditEvent{Action: ActionUpdateOrder} }

func StateChanged(from, to OrderState) AuditEvent {
	return AuditEvent{
		Action: stateActions[to],
		Change: &StateChange{From: from, To: to},
	}
}

// Description renders the human-readable text stored next to the entry.
func (e AuditEvent) Description() string {
	switch {
	case e.Action == ActionCreateOrder:
		return "Order created"
	case e.Action == ActionUpdateOrder:
		return "Order updated"
	case e.Change != nil:
		return fmt.Sprintf("Order moved from %s to %s", e.Change.From, e.Change.To)
	default:
		return string(e.Action)
	}
}

// Transaction is one immutable row of the audit trail.
type Transaction struct {
	ID      string
	OrderID string
	// CustomerID is empty when the customer was deleted.
	CustomerID  string
	Action      Action
	Change      *StateChange
	Description string

	// TraceID and SpanID identify the span active when the entry was written.
	// Both are empty when no span was recording.
	TraceID string
	SpanID  string

	Timestamp time.Time
}
