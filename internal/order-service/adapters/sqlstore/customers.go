package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
)

type customerRepository struct {
	conn
}

const customerColumns = `id, code, name, phone_number, email, created_at`

func (r customerRepository) Insert(ctx context.Context, c *domain.Customer) error {
	_, err := r.exec(ctx,
		`INSERT INTO customers (`+customerColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Code, c.Name, c.PhoneNumber, c.Email, formatTime(c.CreatedAt),
	)
	switch classify(err) {
	case constraintUnique:
		return domain.Conflict("customer with code %q or phone %q already exists", c.Code, c.PhoneNumber)
	case constraintForeignKey:
		return domain.NotFound("identity", c.Code)
	}
	if err != nil {
		return fmt.Errorf("sqlstore: insert customer %q: %w", c.Code, err)
	}
	return nil
}

func (r customerRepository) Get(ctx context.Context, id string) (*domain.Customer, error) {
	row := r.queryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("customer", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get customer %q: %w", id, err)
	}
	return c, nil
}

func (r customerRepository) GetByCode(ctx context.Context, code string) (*domain.Customer, error) {
	row := r.queryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE code = ?`, code)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("customer", code)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get customer by code %q: %w", code, err)
	}
	return c, nil
}

func (r customerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY created_at, code`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterate customers: %w", err)
	}
	return customers, nil
}

// Delete removes the customer through its identity so the cascade also
// drops the login record, the customer's orders and their audit rows.
func (r customerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.exec(ctx,
		`DELETE FROM identities WHERE code = (SELECT code FROM customers WHERE id = ?)`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: delete customer %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: delete customer %q: %w", id, err)
	}
	if n == 0 {
		return domain.NotFound("customer", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(s scanner) (*domain.Customer, error) {
	var (
		c         domain.Customer
		createdAt string
	)
	if err := s.Scan(&c.ID, &c.Code, &c.Name, &c.PhoneNumber, &c.Email, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = t
	return &c, nil
}
