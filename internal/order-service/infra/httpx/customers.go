package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
)

func (h *Handler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req RegisterCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	customer, err := h.registry.Register(r.Context(), domain.Registration{
		Code:        req.Code,
		Password:    req.Password,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCustomerToResponse(customer))
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.registry.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(customers, mapCustomerToResponse))
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCustomerToResponse(customer))
}

// DeleteCustomer removes the calling customer together with their orders.
// Customers cannot delete each other.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if id != principal.ID {
		writeError(w, http.StatusForbidden, "forbidden", "customers can only delete themselves")
		return
	}

	if err := h.registry.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
