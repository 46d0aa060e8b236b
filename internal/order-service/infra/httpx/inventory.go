package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
)

func (h *Handler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req CreateInventoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.ledger.CreateItem(r.Context(), domain.CreateInventoryItem{
		Name:      req.Name,
		OnHand:    req.OnHand,
		WarnLimit: req.WarnLimit,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapInventoryToResponse(item))
}

func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.ledger.ListItems(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(items, mapInventoryToResponse))
}

func (h *Handler) GetInventoryItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.ledger.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapInventoryToResponse(item))
}
