// README: Location service handles high-frequency technician position updates.
package location

import (
	"context"
	"errors"

	"homeserve/internal/types"
)

var ErrInvalidPoint = errors.New("invalid coordinates")

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) UpdateTechnicianLocation(ctx context.Context, u Update) (UpdateResult, error) {
	if u.TechnicianID == "" || !u.Point.Valid() || u.Point.IsZero() {
		return UpdateResult{}, ErrInvalidPoint
	}
	last, err := s.store.LastSeq(ctx, u.TechnicianID)
	if err != nil {
		return UpdateResult{}, err
	}
	if u.Seq <= last {
		return UpdateResult{Accepted: false, Reason: "stale"}, nil
	}
	if err := s.store.SetPosition(ctx, u.TechnicianID, u.Point, u.Seq); err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Accepted: true}, nil
}

func (s *Service) GoOffline(ctx context.Context, techID types.ID) error {
	return s.store.RemovePosition(ctx, techID)
}

func (s *Service) Positions(ctx context.Context, ids []types.ID) (map[types.ID]types.Point, error) {
	return s.store.Positions(ctx, ids)
}
