package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
	"github.com/jcmexdev/order-management/internal/order-service/infra/httpx/middlewares"
	"github.com/jcmexdev/order-management/internal/pkg/interceptors"
)

const (
	idempotencyOperation = "create-order"
	idempotencyTTL       = 24 * time.Hour
)

// CreateOrder creates an order owned by the caller. customer_id may be
// omitted but must name the caller when present. A repeated
// X-Idempotency-Key from the same caller returns the order the first
// request created.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	principal, ok := caller(w, r)
	if !ok {
		return
	}
	if req.CustomerID != "" && req.CustomerID != principal.ID {
		writeDomainError(w, r, domain.Invalid("customer_id", "must be the authenticated customer"))
		return
	}
	customerID := principal.ID

	var state domain.OrderState
	if req.State != "" {
		s, err := parseState("state", req.State)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		state = s
	}

	idemKey := h.idempotencyKey(r.Context(), principal)
	if order := h.replay(r.Context(), idemKey); order != nil {
		writeJSON(w, http.StatusOK, mapOrderToResponse(order))
		return
	}

	slog.InfoContext(r.Context(), "creating order",
		"request_id", interceptors.RequestID(r.Context()), "customer_id", customerID)

	order, err := h.engine.CreateOrder(r.Context(), domain.CreateOrder{
		CustomerID: customerID,
		State:      state,
		Items:      mapItemsFromRequest(req.Items),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if idemKey != "" {
		if err := h.idem.Set(r.Context(), idemKey, order.ID, idempotencyTTL); err != nil {
			slog.WarnContext(r.Context(), "failed to store idempotency key", "order_id", order.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusCreated, mapOrderToResponse(order))
}

// ListOrders lists the caller's orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}

	orders, err := h.engine.ListOrders(r.Context(), principal.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(orders, mapOrderToResponse))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownOrder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	current, ok := h.ownOrder(w, r)
	if !ok {
		return
	}
	if req.CustomerID != nil && *req.CustomerID != current.CustomerID {
		writeDomainError(w, r, domain.Invalid("customer_id", "must be the authenticated customer"))
		return
	}

	patch := domain.OrderPatch{CustomerID: req.CustomerID}
	if req.State != nil {
		s, err := parseState("state", *req.State)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		patch.State = &s
	}
	if req.Items != nil {
		items := mapItemsFromRequest(*req.Items)
		patch.Items = &items
	}

	order, err := h.engine.UpdateOrder(r.Context(), current.ID, patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// TransitionOrder moves an order between two states. from must match the
// stored state or the request is a 409.
func (h *Handler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	from, err := parseState("from", req.From)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	to, err := parseState("to", req.To)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	current, ok := h.ownOrder(w, r)
	if !ok {
		return
	}

	order, err := h.engine.Transition(r.Context(), current.ID, from, to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

func (h *Handler) ListOrderTransactions(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownOrder(w, r)
	if !ok {
		return
	}
	entries, err := h.audit.ListByOrder(r.Context(), order.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(entries, mapTransactionToResponse))
}

// caller returns the authenticated customer, answering 401 when there is
// none.
func caller(w http.ResponseWriter, r *http.Request) (*domain.Customer, bool) {
	principal := middlewares.Principal(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "credentials required")
		return nil, false
	}
	return principal, true
}

// ownOrder loads the order named by the {id} route parameter. Orders of other
// customers are reported as not found.
func (h *Handler) ownOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	principal, ok := caller(w, r)
	if !ok {
		return nil, false
	}
	id := chi.URLParam(r, "id")
	order, err := h.engine.GetOrder(r.Context(), id)
	if err == nil && order.CustomerID != principal.ID {
		err = domain.NotFound("order", id)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return order, true
}

// idempotencyKey scopes the request's key to the caller. It is empty when
// there is no key or no cache.
func (h *Handler) idempotencyKey(ctx context.Context, principal *domain.Customer) string {
	key := interceptors.IdempotencyKey(ctx)
	if key == "" || h.idem == nil {
		return ""
	}
	owner := "anonymous"
	if principal != nil {
		owner = principal.ID
	}
	return h.idem.GenerateKey(idempotencyOperation, owner+":"+key)
}

// replay returns the order stored under key, if any. Cache failures fall
// through to a normal create.
func (h *Handler) replay(ctx context.Context, key string) *domain.Order {
	if key == "" {
		return nil
	}
	orderID, err := h.idem.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "idempotency lookup failed", "error", err)
		return nil
	}
	if orderID == "" {
		return nil
	}
	order, err := h.engine.GetOrder(ctx, orderID)
	if err != nil {
		slog.WarnContext(ctx, "idempotent order no longer readable", "order_id", orderID, "error", err)
		return nil
	}
	slog.InfoContext(ctx, "replaying idempotent create", "order_id", orderID)
	return order
}
