package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/order-management/internal/order-service/app"
	"github.com/jcmexdev/order-management/internal/order-service/infra/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	requireCustomer := middlewares.BasicAuth(handler.registry, app.ErrInvalidCredentials)

	r.Route("/customers", func(r chi.Router) {
		r.Post("/register", handler.RegisterCustomer)
		r.Get("/", handler.ListCustomers)
		r.Get("/{id}", handler.GetCustomer)
		r.With(requireCustomer).Delete("/{id}", handler.DeleteCustomer)
	})

	r.Route("/inventory", func(r chi.Router) {
		r.Post("/", handler.CreateInventoryItem)
		r.Get("/", handler.ListInventory)
		r.Get("/{id}", handler.GetInventoryItem)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(requireCustomer)
		r.Post("/", handler.CreateOrder)
		r.Get("/", handler.ListOrders)
		r.Get("/{id}", handler.GetOrder)
		r.Patch("/{id}", handler.UpdateOrder)
		r.Post("/{id}/transition", handler.TransitionOrder)
		r.Get("/{id}/transactions", handler.ListOrderTransactions)
	})
	return r
}
