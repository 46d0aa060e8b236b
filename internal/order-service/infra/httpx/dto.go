package httpx

import "github.com/shopspring/decimal"

type RegisterCustomerRequest struct {
	Code        string `json:"code"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

type CustomerResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type CreateInventoryRequest struct {
	Name      string `json:"name"`
	OnHand    int    `json:"on_hand"`
	WarnLimit *int   `json:"warn_limit,omitempty"`
}

type InventoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OnHand    int    `json:"on_hand"`
	WarnLimit int    `json:"warn_limit"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// OrderItemDTO accepts price as a JSON number or a decimal string.
type OrderItemDTO struct {
	InventoryID string          `json:"inventory_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type CreateOrderRequest struct {
	CustomerID string         `json:"customer_id,omitempty"`
	State      string         `json:"state,omitempty"`
	Items      []OrderItemDTO `json:"items"`
}

type UpdateOrderRequest struct {
	CustomerID *string         `json:"customer_id,omitempty"`
	State      *string         `json:"state,omitempty"`
	Items      *[]OrderItemDTO `json:"items,omitempty"`
}

type TransitionRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type OrderResponse struct {
	ID         string              `json:"id"`
	CustomerID string              `json:"customer_id"`
	State      string              `json:"state"`
	Total      string              `json:"total"`
	Items      []OrderItemResponse `json:"items"`
	CreatedAt  string              `json:"created_at"`
}

type OrderItemResponse struct {
	ID            string `json:"id"`
	InventoryID   string `json:"inventory_id"`
	InventoryName string `json:"inventory_name,omitempty"`
	Quantity      int    `json:"quantity"`
	Price         string `json:"price"`
	Subtotal      string `json:"subtotal"`
}

type TransactionResponse struct {
	ID          string               `json:"id"`
	OrderID     string               `json:"order_id"`
	CustomerID  string               `json:"customer_id,omitempty"`
	Action      string               `json:"action"`
	Change      *StateChangeResponse `json:"change,omitempty"`
	Description string               `json:"description"`
	TraceID     string               `json:"trace_id,omitempty"`
	SpanID      string               `json:"span_id,omitempty"`
	Timestamp   string               `json:"timestamp"`
}

type StateChangeResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}
