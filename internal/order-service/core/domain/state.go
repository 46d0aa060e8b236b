package domain

import "strings"

// OrderState is the lifecycle state of an order.
//
// No transition graph is enforced: any state may overwrite any other,
// including leaving FULFILLED or CANCELLED. Terminal only describes what the
// engine models side effects for.
type OrderState string

const (
	StateDraft     OrderState = "DRAFT"
	StatePlaced    OrderState = "PLACED"
	StateFulfilled OrderState = "FULFILLED"
	StateCancelled OrderState = "CANCELLED"
)

var states = []OrderState{StateDraft, StatePlaced, StateFulfilled, StateCancelled}

// ParseState accepts the wire value case-insensitively.
func ParseState(s string) (OrderState, error) {
	up := OrderState(strings.ToUpper(strings.TrimSpace(s)))
	if up.Valid() {
		return up, nil
	}
	return "", Invalid("state", "unknown order state %q", s)
}

func (s OrderState) Valid() bool {
	for _, v := range states {
		if s == v {
			return true
		}
	}
	return false
}

func (s OrderState) Terminal() bool {
	return s == StateFulfilled || s == StateCancelled
}

// ConsumesStock reports whether creating an order in this state requires the
// requested quantities to be on hand.
func (s OrderState) ConsumesStock() bool {
	return s != StateDraft
}

func (s OrderState) String() string { return string(s) }
