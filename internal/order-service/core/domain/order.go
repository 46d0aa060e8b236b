package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID         string
	CustomerID string
	State      OrderState
	Items      []OrderItem
	CreatedAt  time.Time
}

// OrderItem is a line of an order. Price is captured when the line is written
// and never recomputed from the catalog.
type OrderItem struct {
	ID          string
	OrderID     string
	InventoryID string
	// InventoryName is filled on reads only.
	InventoryName string
	Quantity      int
	Price         decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ItemInput is a requested order line before it is persisted.
type ItemInput struct {
	InventoryID string
	Quantity    int
	Price       decimal.Decimal
}

func (in ItemInput) Validate() error {
	if in.InventoryID == "" {
		return Invalid("inventory_id", "is required")
	}
	if in.Quantity <= 0 {
		return Invalid("quantity", "must be greater than zero, got %d", in.Quantity)
	}
	if in.Price.IsNegative() {
		return Invalid("price", "must not be negative, got %s", in.Price.StringFixed(2))
	}
	return nil
}

type CreateOrder struct {
	CustomerID string
	// State is the initial state; zero value means StateDraft.
	State OrderState
	Items []ItemInput
}

// OrderPatch carries the fields of an order update. Nil fields are left
// untouched; a non-nil Items replaces the whole item set.
type OrderPatch struct {
	CustomerID *string
	State      *OrderState
	Items      *[]ItemInput
}
