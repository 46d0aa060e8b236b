package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
)

func TestLedger_CreateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.ledger.CreateItem(ctx, domain.CreateInventoryItem{Name: " Widget ", OnHand: 10})
	require.NoError(t, err)
	assert.Equal(t, "Widget", item.Name)
	assert.Equal(t, domain.DefaultWarnLimit, item.WarnLimit)
	assert.Equal(t, domain.StockAvailable, f.ledger.Status(*item))

	_, err = f.ledger.CreateItem(ctx, domain.CreateInventoryItem{Name: "Widget"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.ledger.CreateItem(ctx, domain.CreateInventoryItem{Name: ""})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.ledger.CreateItem(ctx, domain.CreateInventoryItem{Name: "Neg", OnHand: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	items, err := f.ledger.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestLedger_DecrementIsUnclamped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t, "Widget", 1, 5)

	require.NoError(t, f.ledger.Decrement(ctx, f.store.Inventory(), item.ID, 3))
	assert.Equal(t, -2, f.onHand(t, item.ID))

	assert.ErrorIs(t, f.ledger.Decrement(ctx, f.store.Inventory(), "missing", 1), domain.ErrNotFound)
}

func TestAuditLog_RecordRejectsUnknownAction(t *testing.T) {
	f := newFixture(t)
	_, err := f.audit.Record(context.Background(), f.store.Transactions(), "o", "c", domain.AuditEvent{Action: "SHIPPED"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuditLog_ListByOrderUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.audit.ListByOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
