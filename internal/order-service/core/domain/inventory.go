package domain

import "time"

const DefaultWarnLimit = 5

type InventoryItem struct {
	ID        string
	Name      string
	OnHand    int
	WarnLimit int
	CreatedAt time.Time
}

type StockStatus string

const (
	StockAvailable    StockStatus = "AVAILABLE"
	StockFewRemaining StockStatus = "FEW REMAINING"
	StockOutOfStock   StockStatus = "OUT OF STOCK"
)

// Status derives availability from on-hand and the warn limit. A negative
// on-hand, left behind by an unclamped fulfilment, reports FEW REMAINING.
func (i InventoryItem) Status() StockStatus {
	switch {
	case i.OnHand == 0:
		return StockOutOfStock
	case i.OnHand <= i.WarnLimit:
		return StockFewRemaining
	default:
		return StockAvailable
	}
}

type CreateInventoryItem struct {
	Name      string
	OnHand    int
	WarnLimit *int
}
