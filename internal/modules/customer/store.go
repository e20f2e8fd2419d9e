// README: Customer store backed by PostgreSQL.
package customer

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homeserve/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// GetCustomer returns a customer that is allowed to book. Blocked accounts
// are reported as missing.
func (s *Store) GetCustomer(ctx context.Context, id types.ID) (Customer, error) {
	var c Customer
	err := s.db.QueryRow(ctx, `
		SELECT id, name, phone, avatar, is_blocked
		FROM customers
		WHERE id = $1`, string(id),
	).Scan(&c.ID, &c.Name, &c.Phone, &c.Avatar, &c.Blocked)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, err
	}
	if c.Blocked {
		return Customer{}, ErrNotFound
	}
	return c, nil
}
