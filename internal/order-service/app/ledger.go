package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
)

// Deductor removes the stock consumed by a fulfilled order. It runs inside
// the order's transaction. The default deductor is the Ledger itself, which
// takes no lock and does not re-check availability; a guarded
// implementation can be passed to NewEngine with WithDeductor.
type Deductor interface {
	Deduct(ctx context.Context, tx ports.Repositories, order *domain.Order) error
}

// Ledger owns stock quantities.
type Ledger struct {
	store ports.Store
	now   func() time.Time
}

func NewLedger(store ports.Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

var _ Deductor = (*Ledger)(nil)

// Status is a pure function of on-hand and warn limit.
func (l *Ledger) Status(item domain.InventoryItem) domain.StockStatus {
	return item.Status()
}

// Decrement subtracts qty from the item's on-hand. The result is not clamped
// at zero.
func (l *Ledger) Decrement(ctx context.Context, inv ports.InventoryRepository, itemID string, qty int) error {
	return inv.Decrement(ctx, itemID, qty)
}

// Deduct decrements every line of the order by its quantity.
func (l *Ledger) Deduct(ctx context.Context, tx ports.Repositories, order *domain.Order) error {
	for _, item := range order.Items {
		if err := l.Decrement(ctx, tx.Inventory(), item.InventoryID, item.Quantity); err != nil {
			return err
		}
		slog.DebugContext(ctx, "stock deducted",
			"order_id", order.ID, "inventory_id", item.InventoryID, "quantity", item.Quantity)
	}
	return nil
}

func (l *Ledger) CreateItem(ctx context.Context, in domain.CreateInventoryItem) (*domain.InventoryItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name", "is required")
	}
	if in.OnHand < 0 {
		return nil, domain.Invalid("on_hand", "must not be negative, got %d", in.OnHand)
	}
	warn := domain.DefaultWarnLimit
	if in.WarnLimit != nil {
		warn = *in.WarnLimit
	}
	if warn < 0 {
		return nil, domain.Invalid("warn_limit", "must not be negative, got %d", warn)
	}

	item := &domain.InventoryItem{
		ID:        uuid.NewString(),
		Name:      name,
		OnHand:    in.OnHand,
		WarnLimit: warn,
		CreatedAt: l.now().UTC(),
	}
	if err := l.store.Inventory().Insert(ctx, item); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "inventory item created", "inventory_id", item.ID, "name", item.Name, "on_hand", item.OnHand)
	return item, nil
}

func (l *Ledger) GetItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return l.store.Inventory().Get(ctx, id)
}

func (l *Ledger) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	return l.store.Inventory().List(ctx)
}
