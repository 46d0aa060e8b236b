package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
)

type transactionRepository struct {
	conn
}

// Append inserts a new audit row. Each call appends; rows are never updated.
func (r transactionRepository) Append(ctx context.Context, t *domain.Transaction) error {
	var payload any
	if t.Change != nil {
		b, err := json.Marshal(t.Change)
		if err != nil {
			return fmt.Errorf("sqlstore: marshal state change for order %s: %w", t.OrderID, err)
		}
		payload = string(b)
	}

	_, err := r.exec(ctx, `
		INSERT INTO transactions
			(id, order_id, customer_id, action, payload, description, trace_id, span_id, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.OrderID,
		nullableString(t.CustomerID),
		string(t.Action),
		payload,
		t.Description,
		t.TraceID,
		t.SpanID,
		formatTime(t.Timestamp),
	)
	if classify(err) == constraintForeignKey {
		return domain.NotFound("order", t.OrderID)
	}
	if err != nil {
		return fmt.Errorf("sqlstore: append %s for order %s: %w", t.Action, t.OrderID, err)
	}
	return nil
}

// ListByOrder returns the audit trail of an order in insertion order.
func (r transactionRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Transaction, error) {
	rows, err := r.query(ctx, `
		SELECT id, order_id, COALESCE(customer_id, ''), action, payload, description,
		       trace_id, span_id, created_at
		FROM   transactions
		WHERE  order_id = ?
		ORDER  BY seq`, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query transactions of order %s: %w", orderID, err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var (
			t         domain.Transaction
			action    string
			payload   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.OrderID, &t.CustomerID, &action, &payload, &t.Description,
			&t.TraceID, &t.SpanID, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlstore: scan transaction: %w", err)
		}
		t.Action = domain.Action(action)
		if payload.Valid {
			var change domain.StateChange
			if err := json.Unmarshal([]byte(payload.String), &change); err != nil {
				return nil, fmt.Errorf("sqlstore: decode payload of transaction %s: %w", t.ID, err)
			}
			t.Change = &change
		}
		if t.Timestamp, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterate transactions of order %s: %w", orderID, err)
	}
	return out, nil
}
