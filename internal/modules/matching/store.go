// README: Technician directory backed by PostgreSQL, with positions from the location store.
package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homeserve/internal/types"
)

// PositionSource resolves last known technician positions.
type PositionSource interface {
	Positions(ctx context.Context, ids []types.ID) (map[types.ID]types.Point, error)
}

type Store struct {
	db        *pgxpool.Pool
	positions PositionSource
}

func NewStore(db *pgxpool.Pool, positions PositionSource) *Store {
	return &Store{db: db, positions: positions}
}

// FindAvailableInZone returns verified, online, unsuspended and idle
// technicians that serve both the zone and the service.
func (s *Store) FindAvailableInZone(ctx context.Context, zoneID, serviceID types.ID) ([]Technician, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.id, t.name, t.phone, t.avatar, t.rating
		FROM technicians t
		JOIN technician_zones tz ON tz.technician_id = t.id AND tz.zone_id = $1
		JOIN technician_services ts ON ts.technician_id = t.id AND ts.service_id = $2
		WHERE t.is_verified AND t.is_online AND NOT t.is_suspended AND NOT t.is_busy
		ORDER BY t.id`,
		string(zoneID), string(serviceID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var techs []Technician
	for rows.Next() {
		var t Technician
		if err := rows.Scan(&t.ID, &t.Name, &t.Phone, &t.Avatar, &t.Rating); err != nil {
			return nil, err
		}
		techs = append(techs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachPositions(ctx, techs); err != nil {
		return nil, err
	}
	return techs, nil
}

func (s *Store) GetTechnician(ctx context.Context, id types.ID) (Technician, error) {
	var t Technician
	err := s.db.QueryRow(ctx, `
		SELECT id, name, phone, avatar, rating
		FROM technicians
		WHERE id = $1`, string(id),
	).Scan(&t.ID, &t.Name, &t.Phone, &t.Avatar, &t.Rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return Technician{}, ErrNotFound
	}
	if err != nil {
		return Technician{}, err
	}
	techs := []Technician{t}
	if err := s.attachPositions(ctx, techs); err != nil {
		return Technician{}, err
	}
	return techs[0], nil
}

func (s *Store) UpdateAvailabilityStatus(ctx context.Context, id types.ID, busy bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE technicians
		SET is_busy = $2, updated_at = NOW()
		WHERE id = $1`, string(id), busy,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) attachPositions(ctx context.Context, techs []Technician) error {
	if s.positions == nil || len(techs) == 0 {
		return nil
	}
	ids := make([]types.ID, len(techs))
	for i, t := range techs {
		ids[i] = t.ID
	}
	pos, err := s.positions.Positions(ctx, ids)
	if err != nil {
		return fmt.Errorf("technician positions: %w", err)
	}
	for i := range techs {
		if p, ok := pos[techs[i].ID]; ok {
			techs[i].Location = &p
		}
	}
	return nil
}
