package ports

import (
	"context"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
)

// Repositories groups the persistence ports the core depends on. Lookups of
// unknown ids return a *domain.NotFoundError, unique-key violations a
// *domain.ConflictError.
type Repositories interface {
	Customers() CustomerRepository
	Identities() IdentityRepository
	Inventory() InventoryRepository
	Orders() OrderRepository
	Transactions() TransactionRepository
}

// Store is the persistence collaborator. Repositories obtained from the
// Store itself run outside any transaction; the ones handed to fn by
// WithinTx share a single transaction that commits when fn returns nil and
// rolls back otherwise.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}

type CustomerRepository interface {
	Insert(ctx context.Context, c *domain.Customer) error
	Get(ctx context.Context, id string) (*domain.Customer, error)
	GetByCode(ctx context.Context, code string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	Delete(ctx context.Context, id string) error
}

type IdentityRepository interface {
	Insert(ctx context.Context, id *domain.Identity) error
	Get(ctx context.Context, code string) (*domain.Identity, error)
}

type InventoryRepository interface {
	Insert(ctx context.Context, item *domain.InventoryItem) error
	Get(ctx context.Context, id string) (*domain.InventoryItem, error)
	List(ctx context.Context) ([]domain.InventoryItem, error)
	// Decrement subtracts qty from on-hand without any lower bound.
	Decrement(ctx context.Context, id string, qty int) error
}

type OrderRepository interface {
	// Insert writes the order row and all of its items.
	Insert(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	// List returns orders newest first; an empty customerID lists all.
	List(ctx context.Context, customerID string) ([]domain.Order, error)
	// Update writes customer and state of an existing order.
	Update(ctx context.Context, o *domain.Order) error
	// ReplaceItems deletes every item of the order and inserts items.
	ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error
}

// TransactionRepository is append-only: there is no update or delete.
type TransactionRepository interface {
	Append(ctx context.Context, t *domain.Transaction) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.Transaction, error)
}
