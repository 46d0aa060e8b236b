package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
)

type inventoryRepository struct {
	conn
}

const inventoryColumns = `id, name, on_hand, warn_limit, created_at`

func (r inventoryRepository) Insert(ctx context.Context, item *domain.InventoryItem) error {
	_, err := r.exec(ctx,
		`INSERT INTO inventory (`+inventoryColumns+`) VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.OnHand, item.WarnLimit, formatTime(item.CreatedAt),
	)
	if classify(err) == constraintUnique {
		return domain.Conflict("inventory item %q already exists", item.Name)
	}
	if err != nil {
		return fmt.Errorf("sqlstore: insert inventory item %q: %w", item.Name, err)
	}
	return nil
}

func (r inventoryRepository) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	row := r.queryRow(ctx, `SELECT `+inventoryColumns+` FROM inventory WHERE id = ?`, id)
	item, err := scanInventory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("inventory item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get inventory item %q: %w", id, err)
	}
	return item, nil
}

func (r inventoryRepository) List(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := r.query(ctx, `SELECT `+inventoryColumns+` FROM inventory ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query inventory: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		item, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scan inventory item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterate inventory: %w", err)
	}
	return items, nil
}

func (r inventoryRepository) Decrement(ctx context.Context, id string, qty int) error {
	res, err := r.exec(ctx, `UPDATE inventory SET on_hand = on_hand - ? WHERE id = ?`, qty, id)
	if err != nil {
		return fmt.Errorf("sqlstore: decrement inventory item %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: decrement inventory item %q: %w", id, err)
	}
	if n == 0 {
		return domain.NotFound("inventory item", id)
	}
	return nil
}

func scanInventory(s scanner) (*domain.InventoryItem, error) {
	var (
		item      domain.InventoryItem
		createdAt string
	)
	if err := s.Scan(&item.ID, &item.Name, &item.OnHand, &item.WarnLimit, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	item.CreatedAt = t
	return &item, nil
}
