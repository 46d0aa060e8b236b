package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jcmexdev/order-management/internal/order-service/app"
	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
	"github.com/jcmexdev/order-management/internal/pkg/cache"
)

const maxBodyBytes = 1 << 20

// Handler serves the customer, inventory and order resources.
type Handler struct {
	engine   *app.Engine
	ledger   *app.Ledger
	audit    *app.AuditLog
	registry *app.Registry
	idem     cache.Cache // nil-safe: idempotency keys are ignored if nil
}

func NewHandler(
	engine *app.Engine,
	ledger *app.Ledger,
	audit *app.AuditLog,
	registry *app.Registry,
	idem cache.Cache,
) *Handler {
	return &Handler{
		engine:   engine,
		ledger:   ledger,
		audit:    audit,
		registry: registry,
		idem:     idem,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

// writeDomainError maps the domain error kinds onto status codes. Anything
// unrecognised is logged and reported as a bare 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		conflict   *domain.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Field:   validation.Field,
		})
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func parseState(field, value string) (domain.OrderState, error) {
	s, err := domain.ParseState(value)
	if err != nil {
		return "", domain.Invalid(field, "unknown order state %q", value)
	}
	return s, nil
}
