package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
)

const tracerName = "github.com/jcmexdev/order-management/internal/order-service/app"

// Engine is the order lifecycle engine. Every mutation runs in one store
// transaction that covers the order row, its items, the audit entries and
// any stock deduction. Notifications and lifecycle events are dispatched
// only after that transaction has committed.
//
// Concurrent transitions of the same order are not serialised: two
// simultaneous fulfilments deduct stock twice. Guard against that with
// WithDeductor.
type Engine struct {
	store     ports.Store
	audit     *AuditLog
	gateway   *NotificationGateway
	publisher ports.EventPublisher
	deductor  Deductor
	tracer    trace.Tracer
	now       func() time.Time

	wg sync.WaitGroup
}

type Option func(*Engine)

// WithPublisher enables lifecycle events. Without it none are published.
func WithPublisher(p ports.EventPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithDeductor replaces the ledger's unguarded stock deduction.
func WithDeductor(d Deductor) Option {
	return func(e *Engine) { e.deductor = d }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.audit.now = now
	}
}

func NewEngine(store ports.Store, ledger *Ledger, audit *AuditLog, gateway *NotificationGateway, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		audit:    audit,
		gateway:  gateway,
		deductor: ledger,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// committed is what a mutation hands to the post-commit phase.
type committed struct {
	order    *domain.Order
	customer *domain.Customer
	entries  []domain.Transaction
	message  string
}

// CreateOrder persists a new order with its items. Stock is checked only
// when the initial state is not DRAFT; creation never deducts stock.
func (e *Engine) CreateOrder(ctx context.Context, in domain.CreateOrder) (*domain.Order, error) {
	ctx, span := e.tracer.Start(ctx, "order.create")
	defer span.End()

	state := in.State
	if state == "" {
		state = domain.StateDraft
	}
	if !state.Valid() {
		return nil, fail(span, domain.Invalid("state", "unknown order state %q", state))
	}
	if in.CustomerID == "" {
		return nil, fail(span, domain.Invalid("customer_id", "is required"))
	}
	if err := validateItems(in.Items); err != nil {
		return nil, fail(span, err)
	}

	var c committed
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		customer, err := tx.Customers().Get(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		orderID := uuid.NewString()
		items, err := e.resolveItems(ctx, tx, orderID, in.Items, state.ConsumesStock())
		if err != nil {
			return err
		}

		order := &domain.Order{
			ID:         orderID,
			CustomerID: customer.ID,
			State:      state,
			Items:      items,
			CreatedAt:  e.now().UTC(),
		}
		if err := tx.Orders().Insert(ctx, order); err != nil {
			return err
		}

		entry, err := e.audit.Record(ctx, tx.Transactions(), order.ID, customer.ID, domain.OrderCreated())
		if err != nil {
			return fmt.Errorf("record %s: %w", domain.ActionCreateOrder, err)
		}

		c = committed{
			order:    order,
			customer: customer,
			entries:  []domain.Transaction{*entry},
			message:  fmt.Sprintf("Your order %s has been placed.", order.ID),
		}
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	span.SetAttributes(attribute.String("order.id", c.order.ID), attribute.String("order.state", string(state)))
	slog.InfoContext(ctx, "order created", "order_id", c.order.ID, "customer_id", c.customer.ID,
		"state", state, "items", len(c.order.Items))

	e.afterCommit(ctx, c)
	return c.order, nil
}

// UpdateOrder applies patch to an existing order. A new item list replaces
// the old one entirely. UPDATE_ORDER is always recorded; a changed state is
// handed to transition with the state read before the write.
func (e *Engine) UpdateOrder(ctx context.Context, orderID string, patch domain.OrderPatch) (*domain.Order, error) {
	ctx, span := e.tracer.Start(ctx, "order.update", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	if patch.State != nil && !patch.State.Valid() {
		return nil, fail(span, domain.Invalid("state", "unknown order state %q", *patch.State))
	}
	if patch.CustomerID != nil && *patch.CustomerID == "" {
		return nil, fail(span, domain.Invalid("customer_id", "must not be empty"))
	}
	if patch.Items != nil {
		if err := validateItems(*patch.Items); err != nil {
			return nil, fail(span, err)
		}
	}

	order, err := e.mutate(ctx, orderID, func(ctx context.Context, tx ports.Repositories, o *domain.Order) error {
		if patch.CustomerID != nil {
			customer, err := tx.Customers().Get(ctx, *patch.CustomerID)
			if err != nil {
				return err
			}
			o.CustomerID = customer.ID
		}
		if patch.Items != nil {
			items, err := e.resolveItems(ctx, tx, o.ID, *patch.Items, false)
			if err != nil {
				return err
			}
			if err := tx.Orders().ReplaceItems(ctx, o.ID, items); err != nil {
				return err
			}
			o.Items = items
		}
		if patch.State != nil {
			o.State = *patch.State
		}
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}
	return order, nil
}

// Transition moves an order from expectedFrom to to. It fails with a
// ConflictError when the stored state is not expectedFrom and writes
// nothing in that case. Any pair of distinct states is accepted.
func (e *Engine) Transition(ctx context.Context, orderID string, expectedFrom, to domain.OrderState) (*domain.Order, error) {
	ctx, span := e.tracer.Start(ctx, "order.transition", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.state.from", string(expectedFrom)),
		attribute.String("order.state.to", string(to)),
	))
	defer span.End()

	if !expectedFrom.Valid() {
		return nil, fail(span, domain.Invalid("from", "unknown order state %q", expectedFrom))
	}
	if !to.Valid() {
		return nil, fail(span, domain.Invalid("to", "unknown order state %q", to))
	}
	if expectedFrom == to {
		return nil, fail(span, domain.Invalid("to", "order is already %s", to))
	}

	order, err := e.mutate(ctx, orderID, func(_ context.Context, _ ports.Repositories, o *domain.Order) error {
		if o.State != expectedFrom {
			return domain.Conflict("order %s is %s, expected %s", o.ID, o.State, expectedFrom)
		}
		o.State = to
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}
	return order, nil
}

// mutate loads the order inside a transaction, lets apply change it, writes
// the row, records UPDATE_ORDER and, if the state moved, runs transition.
func (e *Engine) mutate(
	ctx context.Context,
	orderID string,
	apply func(ctx context.Context, tx ports.Repositories, o *domain.Order) error,
) (*domain.Order, error) {
	var c committed
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		order, err := tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		from := order.State

		if err := apply(ctx, tx, order); err != nil {
			return err
		}
		if err := tx.Orders().Update(ctx, order); err != nil {
			return err
		}

		entry, err := e.audit.Record(ctx, tx.Transactions(), order.ID, order.CustomerID, domain.OrderUpdated())
		if err != nil {
			return fmt.Errorf("record %s: %w", domain.ActionUpdateOrder, err)
		}
		c = committed{order: order, entries: []domain.Transaction{*entry}}

		if order.State != from {
			entries, message, err := e.transition(ctx, tx, order, from, order.State)
			if err != nil {
				return err
			}
			c.entries = append(c.entries, entries...)
			c.message = message
		}

		if c.customer, err = tx.Customers().Get(ctx, order.CustomerID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order updated", "order_id", c.order.ID, "state", c.order.State, "entries", len(c.entries))
	e.afterCommit(ctx, c)
	return c.order, nil
}

// transition performs the side effects of moving order from one state to
// another inside tx and returns the entries it recorded and the message to
// send once committed. Only FULFILLED touches stock.
func (e *Engine) transition(
	ctx context.Context,
	tx ports.Repositories,
	order *domain.Order,
	from, to domain.OrderState,
) ([]domain.Transaction, string, error) {
	entry, err := e.audit.Record(ctx, tx.Transactions(), order.ID, order.CustomerID, domain.StateChanged(from, to))
	if err != nil {
		return nil, "", fmt.Errorf("record state change: %w", err)
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("order.state.left_terminal", from.Terminal()))
	if from.Terminal() {
		slog.WarnContext(ctx, "order left a terminal state", "order_id", order.ID, "from", from, "to", to)
	}

	var message string
	switch to {
	case domain.StateFulfilled:
		if err := e.deductor.Deduct(ctx, tx, order); err != nil {
			return nil, "", fmt.Errorf("deduct stock for order %s: %w", order.ID, err)
		}
		message = fmt.Sprintf("Your order %s has been fulfilled.", order.ID)
	case domain.StateCancelled:
		message = fmt.Sprintf("Your order %s has been cancelled.", order.ID)
	}

	slog.InfoContext(ctx, "order state changed", "order_id", order.ID, "from", from, "to", to)
	return []domain.Transaction{*entry}, message, nil
}

// afterCommit sends the notification, then publishes the lifecycle events.
// Neither can affect the committed result.
func (e *Engine) afterCommit(ctx context.Context, c committed) {
	if c.message != "" && c.customer != nil {
		e.gateway.Dispatch(ctx, c.customer.PhoneNumber, c.message)
	}
	if e.publisher == nil || len(c.entries) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for _, entry := range c.entries {
			if err := e.publisher.PublishEvent(ctx, LifecycleTopic, entry.OrderID, lifecycleEventFrom(entry)); err != nil {
				slog.ErrorContext(ctx, "failed to publish lifecycle event",
					"order_id", entry.OrderID, "action", entry.Action, "error", err)
			}
		}
	}()
}

// Wait blocks until background notifications and event publishing finish.
func (e *Engine) Wait() {
	e.wg.Wait()
	e.gateway.Wait()
}

func (e *Engine) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return e.store.Orders().Get(ctx, id)
}

// ListOrders lists all orders, or only the customer's when customerID is set.
func (e *Engine) ListOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	return e.store.Orders().List(ctx, customerID)
}

// resolveItems looks up every referenced inventory item and builds the
// order lines. With checkStock, a line asking for more than is on hand is a
// ValidationError.
func (e *Engine) resolveItems(
	ctx context.Context,
	tx ports.Repositories,
	orderID string,
	in []domain.ItemInput,
	checkStock bool,
) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(in))
	for i, it := range in {
		inv, err := tx.Inventory().Get(ctx, it.InventoryID)
		if err != nil {
			return nil, err
		}
		if checkStock && it.Quantity > inv.OnHand {
			return nil, domain.Invalid(fmt.Sprintf("items[%d].quantity", i),
				"requested %d of %q but only %d on hand", it.Quantity, inv.Name, inv.OnHand)
		}
		items = append(items, domain.OrderItem{
			ID:            uuid.NewString(),
			OrderID:       orderID,
			InventoryID:   inv.ID,
			InventoryName: inv.Name,
			Quantity:      it.Quantity,
			Price:         it.Price.Round(2),
		})
	}
	return items, nil
}

func validateItems(items []domain.ItemInput) error {
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("items[%d]: %w", i, err)
		}
	}
	return nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
