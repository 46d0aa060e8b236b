package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedCustomer(t *testing.T, repos ports.Repositories, code, phone string) *domain.Customer {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repos.Identities().Insert(ctx, &domain.Identity{
		Code: code, PasswordHash: []byte("hash"), CreatedAt: epoch,
	}))
	c := &domain.Customer{ID: uuid.NewString(), Name: code, Code: code, PhoneNumber: phone, CreatedAt: epoch}
	require.NoError(t, repos.Customers().Insert(ctx, c))
	return c
}

func seedItem(t *testing.T, repos ports.Repositories, name string, onHand int) *domain.InventoryItem {
	t.Helper()
	item := &domain.InventoryItem{ID: uuid.NewString(), Name: name, OnHand: onHand, WarnLimit: 5, CreatedAt: epoch}
	require.NoError(t, repos.Inventory().Insert(context.Background(), item))
	return item
}

func seedOrder(t *testing.T, repos ports.Repositories, customerID string, created time.Time, items ...domain.OrderItem) *domain.Order {
	t.Helper()
	id := uuid.NewString()
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].OrderID = id
	}
	o := &domain.Order{ID: id, CustomerID: customerID, State: domain.StateDraft, Items: items, CreatedAt: created}
	require.NoError(t, repos.Orders().Insert(context.Background(), o))
	return o
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.Error(t, err)
}

func TestOpen_SchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.db")
	for range 2 {
		store, err := Open(context.Background(), DriverSQLite, path)
		require.NoError(t, err)
		require.NoError(t, store.Close())
	}
}

func TestCustomers_CRUD(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	c := seedCustomer(t, store, "CUST001", "+254712345678")

	got, err := store.Customers().Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	byCode, err := store.Customers().GetByCode(ctx, "CUST001")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byCode.ID)

	_, err = store.Customers().Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := store.Customers().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCustomers_DuplicatePhoneIsConflict(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedCustomer(t, store, "CUST001", "+254712345678")

	require.NoError(t, store.Identities().Insert(ctx, &domain.Identity{Code: "CUST002", PasswordHash: []byte("h"), CreatedAt: epoch}))
	err := store.Customers().Insert(ctx, &domain.Customer{
		ID: uuid.NewString(), Name: "dup", Code: "CUST002", PhoneNumber: "+254712345678", CreatedAt: epoch,
	})
	var conflict *domain.ConflictError
	assert.True(t, errors.As(err, &conflict), "got %v", err)
}

func TestIdentities_DuplicateCodeIsConflict(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	id := &domain.Identity{Code: "CUST001", PasswordHash: []byte("h"), CreatedAt: epoch}
	require.NoError(t, store.Identities().Insert(ctx, id))
	assert.ErrorIs(t, store.Identities().Insert(ctx, id), domain.ErrConflict)

	got, err := store.Identities().Get(ctx, "CUST001")
	require.NoError(t, err)
	assert.Equal(t, []byte("h"), got.PasswordHash)
}

func TestInventory_DecrementIsUnclamped(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	item := seedItem(t, store, "Widget", 10)

	require.NoError(t, store.Inventory().Decrement(ctx, item.ID, 12))

	got, err := store.Inventory().Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, -2, got.OnHand)
	assert.Equal(t, domain.StockFewRemaining, got.Status())

	assert.ErrorIs(t, store.Inventory().Decrement(ctx, "missing", 1), domain.ErrNotFound)
	assert.ErrorIs(t, store.Inventory().Insert(ctx, &domain.InventoryItem{
		ID: uuid.NewString(), Name: "Widget", CreatedAt: epoch,
	}), domain.ErrConflict)
}

func TestOrders_InsertGetReplace(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	c := seedCustomer(t, store, "CUST001", "+254712345678")
	widget := seedItem(t, store, "Widget", 10)
	gadget := seedItem(t, store, "Gadget", 3)

	o := seedOrder(t, store, c.ID, epoch,
		domain.OrderItem{InventoryID: widget.ID, Quantity: 2, Price: decimal.RequireFromString("12.50")},
		domain.OrderItem{InventoryID: gadget.ID, Quantity: 1, Price: decimal.RequireFromString("3.00")},
	)

	got, err := store.Orders().Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Widget", got.Items[0].InventoryName)
	assert.Equal(t, "Gadget", got.Items[1].InventoryName)
	assert.Equal(t, "28.00", got.Total().StringFixed(2))
	assert.True(t, got.CreatedAt.Equal(epoch))

	replacement := []domain.OrderItem{{
		ID: uuid.NewString(), OrderID: o.ID, InventoryID: gadget.ID, Quantity: 3, Price: decimal.RequireFromString("2.75"),
	}}
	require.NoError(t, store.Orders().ReplaceItems(ctx, o.ID, replacement))

	got, err = store.Orders().Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, gadget.ID, got.Items[0].InventoryID)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, "2.75", got.Items[0].Price.StringFixed(2))
}

func TestOrders_UnknownReferences(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.Orders().Insert(ctx, &domain.Order{ID: uuid.NewString(), CustomerID: "nobody", State: domain.StateDraft, CreatedAt: epoch})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.Orders().Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.Orders().Update(ctx, &domain.Order{ID: "missing", CustomerID: "nobody", State: domain.StatePlaced})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrders_ListNewestFirstAndFiltered(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	alice := seedCustomer(t, store, "ALICE", "+254700000001")
	bob := seedCustomer(t, store, "BOB", "+254700000002")

	older := seedOrder(t, store, alice.ID, epoch)
	newer := seedOrder(t, store, alice.ID, epoch.Add(time.Minute))
	bobs := seedOrder(t, store, bob.ID, epoch.Add(2*time.Minute))

	all, err := store.Orders().List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, bobs.ID, all[0].ID)

	mine, err := store.Orders().List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)
	assert.Equal(t, older.ID, mine[1].ID)
}

func TestTransactions_AppendAndOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	c := seedCustomer(t, store, "CUST001", "+254712345678")
	o := seedOrder(t, store, c.ID, epoch)

	entries := []*domain.Transaction{
		{ID: uuid.NewString(), OrderID: o.ID, CustomerID: c.ID, Action: domain.ActionCreateOrder, Description: "Order created", Timestamp: epoch},
		{ID: uuid.NewString(), OrderID: o.ID, CustomerID: c.ID, Action: domain.ActionUpdateOrder, Description: "Order updated", Timestamp: epoch},
		{
			ID: uuid.NewString(), OrderID: o.ID, CustomerID: c.ID, Action: domain.ActionStatePlaced,
			Change:      &domain.StateChange{From: domain.StateDraft, To: domain.StatePlaced},
			Description: "Order moved from DRAFT to PLACED", TraceID: "t1", SpanID: "s1", Timestamp: epoch,
		},
	}
	for _, e := range entries {
		require.NoError(t, store.Transactions().Append(ctx, e))
	}

	got, err := store.Transactions().ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, e := range entries {
		assert.Equal(t, e.ID, got[i].ID, "entries keep insertion order even with equal timestamps")
	}
	assert.Nil(t, got[0].Change)
	require.NotNil(t, got[2].Change)
	assert.Equal(t, domain.StatePlaced, got[2].Change.To)
	assert.Equal(t, "t1", got[2].TraceID)

	err = store.Transactions().Append(ctx, &domain.Transaction{
		ID: uuid.NewString(), OrderID: "missing", Action: domain.ActionCreateOrder, Timestamp: epoch,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCustomerDelete_Cascades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	alice := seedCustomer(t, store, "ALICE", "+254700000001")
	bob := seedCustomer(t, store, "BOB", "+254700000002")
	widget := seedItem(t, store, "Widget", 10)

	alicesOrder := seedOrder(t, store, alice.ID, epoch,
		domain.OrderItem{InventoryID: widget.ID, Quantity: 1, Price: decimal.NewFromInt(1)})
	// An order Alice created that now belongs to Bob.
	moved := seedOrder(t, store, alice.ID, epoch)
	require.NoError(t, store.Transactions().Append(ctx, &domain.Transaction{
		ID: uuid.NewString(), OrderID: moved.ID, CustomerID: alice.ID, Action: domain.ActionCreateOrder, Timestamp: epoch,
	}))
	moved.CustomerID = bob.ID
	require.NoError(t, store.Orders().Update(ctx, moved))

	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		return tx.Customers().Delete(ctx, alice.ID)
	}))

	_, err := store.Customers().Get(ctx, alice.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Identities().Get(ctx, "ALICE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Orders().Get(ctx, alicesOrder.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	trail, err := store.Transactions().ListByOrder(ctx, moved.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Empty(t, trail[0].CustomerID, "the audit row outlives the customer with a null reference")

	assert.ErrorIs(t, store.Customers().Delete(ctx, alice.ID), domain.ErrNotFound)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		seedItem(t, tx, "Widget", 10)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	items, err := store.Inventory().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRebind(t *testing.T) {
	pg := conn{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := conn{driver: DriverSQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}
