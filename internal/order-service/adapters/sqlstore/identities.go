package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
)

type identityRepository struct {
	conn
}

func (r identityRepository) Insert(ctx context.Context, id *domain.Identity) error {
	_, err := r.exec(ctx,
		`INSERT INTO identities (code, password_hash, email, created_at) VALUES (?, ?, ?, ?)`,
		id.Code, string(id.PasswordHash), id.Email, formatTime(id.CreatedAt),
	)
	if classify(err) == constraintUnique {
		return domain.Conflict("code %q is already registered", id.Code)
	}
	if err != nil {
		return fmt.Errorf("sqlstore: insert identity %q: %w", id.Code, err)
	}
	return nil
}

func (r identityRepository) Get(ctx context.Context, code string) (*domain.Identity, error) {
	var (
		id        domain.Identity
		hash      string
		createdAt string
	)
	err := r.queryRow(ctx,
		`SELECT code, password_hash, email, created_at FROM identities WHERE code = ?`, code,
	).Scan(&id.Code, &hash, &id.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("identity", code)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get identity %q: %w", code, err)
	}
	id.PasswordHash = []byte(hash)
	if id.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &id, nil
}
