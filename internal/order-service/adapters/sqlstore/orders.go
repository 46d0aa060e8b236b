package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
)

type orderRepository struct {
	conn
}

func (r orderRepository) Insert(ctx context.Context, o *domain.Order) error {
	_, err := r.exec(ctx,
		`INSERT INTO orders (id, customer_id, state, created_at) VALUES (?, ?, ?, ?)`,
		o.ID, o.CustomerID, string(o.State), formatTime(o.CreatedAt),
	)
	switch classify(err) {
	case constraintUnique:
		return domain.Conflict("order %s already exists", o.ID)
	case constraintForeignKey:
		return domain.NotFound("customer", o.CustomerID)
	}
	if err != nil {
		return fmt.Errorf("sqlstore: insert order %s: %w", o.ID, err)
	}
	return r.insertItems(ctx, o.ID, o.Items)
}

func (r orderRepository) insertItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	for pos, item := range items {
		_, err := r.exec(ctx,
			`INSERT INTO order_items (id, order_id, inventory_id, position, quantity, price) VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, orderID, item.InventoryID, pos, item.Quantity, item.Price.StringFixed(2),
		)
		if classify(err) == constraintForeignKey {
			return domain.NotFound("inventory item", item.InventoryID)
		}
		if err != nil {
			return fmt.Errorf("sqlstore: insert item of order %s: %w", orderID, err)
		}
	}
	return nil
}

func (r orderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var (
		o         domain.Order
		state     string
		createdAt string
	)
	err := r.queryRow(ctx,
		`SELECT id, customer_id, state, created_at FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.CustomerID, &state, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get order %s: %w", id, err)
	}
	o.State = domain.OrderState(state)
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r orderRepository) List(ctx context.Context, customerID string) ([]domain.Order, error) {
	q := `SELECT id, customer_id, state, created_at FROM orders`
	var args []any
	if customerID != "" {
		q += ` WHERE customer_id = ?`
		args = append(args, customerID)
	}
	q += ` ORDER BY created_at DESC, id`

	rows, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var (
			o         domain.Order
			state     string
			createdAt string
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &state, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlstore: scan order: %w", err)
		}
		o.State = domain.OrderState(state)
		if o.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterate orders: %w", err)
	}
	rows.Close()

	// Fetch items for each order
	for i := range orders {
		if orders[i].Items, err = r.items(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r orderRepository) Update(ctx context.Context, o *domain.Order) error {
	res, err := r.exec(ctx,
		`UPDATE orders SET customer_id = ?, state = ? WHERE id = ?`,
		o.CustomerID, string(o.State), o.ID,
	)
	if classify(err) == constraintForeignKey {
		return domain.NotFound("customer", o.CustomerID)
	}
	if err != nil {
		return fmt.Errorf("sqlstore: update order %s: %w", o.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: update order %s: %w", o.ID, err)
	}
	if n == 0 {
		return domain.NotFound("order", o.ID)
	}
	return nil
}

func (r orderRepository) ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if _, err := r.exec(ctx, `DELETE FROM order_items WHERE order_id = ?`, orderID); err != nil {
		return fmt.Errorf("sqlstore: delete items of order %s: %w", orderID, err)
	}
	return r.insertItems(ctx, orderID, items)
}

func (r orderRepository) items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.query(ctx, `
		SELECT oi.id, oi.order_id, oi.inventory_id, inv.name, oi.quantity, oi.price
		FROM   order_items oi
		JOIN   inventory inv ON inv.id = oi.inventory_id
		WHERE  oi.order_id = ?
		ORDER  BY oi.position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query items of order %s: %w", orderID, err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var (
			item  domain.OrderItem
			price string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.InventoryID, &item.InventoryName, &item.Quantity, &price); err != nil {
			return nil, fmt.Errorf("sqlstore: scan item of order %s: %w", orderID, err)
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("sqlstore: parse price %q: %w", price, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterate items of order %s: %w", orderID, err)
	}
	return items, nil
}
