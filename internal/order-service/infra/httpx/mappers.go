package httpx

import (
	"time"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func mapCustomerToResponse(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		Code:        c.Code,
		Name:        c.Name,
		PhoneNumber: c.PhoneNumber,
		Email:       c.Email,
		CreatedAt:   formatTime(c.CreatedAt),
	}
}

func mapInventoryToResponse(item *domain.InventoryItem) InventoryResponse {
	return InventoryResponse{
		ID:        item.ID,
		Name:      item.Name,
		OnHand:    item.OnHand,
		WarnLimit: item.WarnLimit,
		Status:    string(item.Status()),
		CreatedAt: formatTime(item.CreatedAt),
	}
}

func mapOrderToResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:            it.ID,
			InventoryID:   it.InventoryID,
			InventoryName: it.InventoryName,
			Quantity:      it.Quantity,
			Price:         it.Price.StringFixed(2),
			Subtotal:      it.Subtotal().StringFixed(2),
		}
	}
	return OrderResponse{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		State:      string(o.State),
		Total:      o.Total().StringFixed(2),
		Items:      items,
		CreatedAt:  formatTime(o.CreatedAt),
	}
}

func mapTransactionToResponse(t *domain.Transaction) TransactionResponse {
	out := TransactionResponse{
		ID:          t.ID,
		OrderID:     t.OrderID,
		CustomerID:  t.CustomerID,
		Action:      string(t.Action),
		Description: t.Description,
		TraceID:     t.TraceID,
		SpanID:      t.SpanID,
		Timestamp:   formatTime(t.Timestamp),
	}
	if t.Change != nil {
		out.Change = &StateChangeResponse{From: string(t.Change.From), To: string(t.Change.To)}
	}
	return out
}

func mapItemsFromRequest(in []OrderItemDTO) []domain.ItemInput {
	out := make([]domain.ItemInput, len(in))
	for i, it := range in {
		out[i] = domain.ItemInput{
			InventoryID: it.InventoryID,
			Quantity:    it.Quantity,
			Price:       it.Price,
		}
	}
	return out
}

// mapSlice applies fn to a pointer to every element of in.
func mapSlice[T, R any](in []T, fn func(*T) R) []R {
	out := make([]R, len(in))
	for i := range in {
		out[i] = fn(&in[i])
	}
	return out
}
