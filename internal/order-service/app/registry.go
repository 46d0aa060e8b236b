package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown code or a
// wrong password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Registry creates customers together with their login identity.
type Registry struct {
	store      ports.Store
	bcryptCost int
	now        func() time.Time
}

func NewRegistry(store ports.Store, bcryptCost int) *Registry {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Registry{store: store, bcryptCost: bcryptCost, now: time.Now}
}

// Register creates the identity and the customer in one transaction. A code
// that is already registered is a ConflictError, as is a phone number that
// normalises to one already on file.
func (r *Registry) Register(ctx context.Context, reg domain.Registration) (*domain.Customer, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	// bcrypt only looks at the first 72 bytes.
	if len(reg.Password) > 72 {
		return nil, domain.Invalid("password", "must be at most 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), r.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := r.now().UTC()
	code := strings.TrimSpace(reg.Code)
	customer := &domain.Customer{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(reg.Name),
		Code:        code,
		PhoneNumber: domain.NormalizePhone(reg.PhoneNumber),
		Email:       strings.TrimSpace(reg.Email),
		CreatedAt:   now,
	}

	err = r.store.WithinTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		_, err := tx.Identities().Get(ctx, code)
		switch {
		case err == nil:
			return domain.Conflict("code %q is already registered", code)
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		if err := tx.Identities().Insert(ctx, &domain.Identity{
			Code:         code,
			PasswordHash: hash,
			Email:        customer.Email,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		return tx.Customers().Insert(ctx, customer)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "customer registered", "customer_id", customer.ID, "code", customer.Code)
	return customer, nil
}

// Authenticate maps a code/password pair to the customer it identifies.
func (r *Registry) Authenticate(ctx context.Context, code, password string) (*domain.Customer, error) {
	id, err := r.store.Identities().Get(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(id.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return r.store.Customers().GetByCode(ctx, id.Code)
}

func (r *Registry) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return r.store.Customers().Get(ctx, id)
}

func (r *Registry) List(ctx context.Context) ([]domain.Customer, error) {
	return r.store.Customers().List(ctx)
}

// Delete removes the customer, their identity and their orders. Audit rows
// of other orders that still reference the customer keep a null reference.
func (r *Registry) Delete(ctx context.Context, id string) error {
	err := r.store.WithinTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		return tx.Customers().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "customer deleted", "customer_id", id)
	return nil
}
