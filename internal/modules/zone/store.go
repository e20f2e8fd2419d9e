// README: Zone store backed by PostgreSQL; polygons are JSONB arrays of points.
package zone

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) ListActive(ctx context.Context) ([]Zone, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, polygon
		FROM zones
		WHERE is_active
		ORDER BY priority DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		var z Zone
		var raw []byte
		if err := rows.Scan(&z.ID, &z.Name, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &z.Polygon); err != nil {
			return nil, fmt.Errorf("zone %s polygon: %w", z.ID, err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}
