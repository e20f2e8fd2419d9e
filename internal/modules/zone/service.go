// README: Zone resolver maps a coordinate to the first active zone containing it.
package zone

import (
	"context"

	"homeserve/internal/types"
)

type Lister interface {
	ListActive(ctx context.Context) ([]Zone, error)
}

type Service struct {
	store Lister
}

func NewService(store Lister) *Service {
	return &Service{store: store}
}

func (s *Service) CheckServiceability(ctx context.Context, p types.Point) (Serviceability, error) {
	zones, err := s.store.ListActive(ctx)
	if err != nil {
		return Serviceability{}, err
	}
	for _, z := range zones {
		if z.Contains(p) {
			return Serviceability{Serviceable: true, ZoneID: z.ID}, nil
		}
	}
	return Serviceability{}, nil
}
