package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
)

type principalKey struct{}

// Authenticator resolves a customer code and password to the customer.
type Authenticator interface {
	Authenticate(ctx context.Context, code, password string) (*domain.Customer, error)
}

// BasicAuth requires HTTP basic credentials and stores the authenticated
// customer in the request context. invalidCredentials is the error
// Authenticate returns for a wrong code or password.
func BasicAuth(auth Authenticator, invalidCredentials error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w, "credentials required")
				return
			}

			customer, err := auth.Authenticate(r.Context(), code, password)
			switch {
			case errors.Is(err, invalidCredentials):
				unauthorized(w, "invalid credentials")
				return
			case err != nil:
				slog.ErrorContext(r.Context(), "authentication failed", "code", code, "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal_error"})
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, customer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Principal returns the customer authenticated by BasicAuth, or nil.
func Principal(ctx context.Context) *domain.Customer {
	c, _ := ctx.Value(principalKey{}).(*domain.Customer)
	return c
}

// WithPrincipal is for handlers under test that skip BasicAuth.
func WithPrincipal(ctx context.Context, c *domain.Customer) context.Context {
	return context.WithValue(ctx, principalKey{}, c)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="orders", charset="UTF-8"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized", "message": msg})
}
