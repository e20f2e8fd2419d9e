// README: Technician directory entries and ranking results.
package matching

import (
	"errors"

	"homeserve/internal/types"
)

var ErrNotFound = errors.New("technician not found")

// TieBandKm is the distance difference under which two technicians are
// considered equally close and rating decides.
const TieBandKm = 0.5

// UnknownDistance marks a technician without a known position.
const UnknownDistance = -1.0

type Technician struct {
	ID     types.ID
	Name   string
	Phone  string
	Avatar string
	Rating float64
	// Location is nil when no position has been reported.
	Location *types.Point
}

type Ranked struct {
	Technician
	DistanceKm float64
}
