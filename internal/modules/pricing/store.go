// README: Service catalog store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// GetService returns an active catalog entry.
func (s *Store) GetService(ctx context.Context, id string) (ServiceItem, error) {
	var it ServiceItem
	err := s.db.QueryRow(ctx, `
		SELECT id, name, category, base_price, delivery_fee, currency
		FROM services
		WHERE id = $1 AND is_active`, id,
	).Scan(&it.ID, &it.Name, &it.Category, &it.BasePrice, &it.DeliveryFee, &it.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return ServiceItem{}, ErrNotFound
	}
	return it, err
}
