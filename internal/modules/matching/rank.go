// README: Candidate ranking by distance with a rating tie-break inside TieBandKm.
package matching

import (
	"math"
	"sort"

	"homeserve/internal/modules/location"
	"homeserve/internal/types"
)

// Rank orders technicians for a request at origin. Technicians without a
// location go last. The input slice is not modified.
func Rank(origin types.Point, techs []Technician) []Ranked {
	out := make([]Ranked, len(techs))
	for i, t := range techs {
		d := UnknownDistance
		if t.Location != nil {
			d = location.HaversineKm(origin, *t.Location)
		}
		out[i] = Ranked{Technician: t, DistanceKm: d}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rankedBefore(out[i], out[j])
	})
	return out
}

func rankedBefore(a, b Ranked) bool {
	aKnown, bKnown := a.DistanceKm >= 0, b.DistanceKm >= 0
	if aKnown != bKnown {
		return aKnown
	}
	if !aKnown || math.Abs(a.DistanceKm-b.DistanceKm) <= TieBandKm {
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
	}
	return a.DistanceKm < b.DistanceKm
}
