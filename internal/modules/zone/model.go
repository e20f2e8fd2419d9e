// README: Service zones as polygons of lat/lng vertices.
package zone

import "homeserve/internal/types"

type Zone struct {
	ID      types.ID
	Name    string
	Polygon []types.Point
}

type Serviceability struct {
	Serviceable bool
	ZoneID      types.ID
}

// Contains reports whether p lies inside the zone polygon (ray casting).
// Points exactly on an edge may fall either way.
func (z Zone) Contains(p types.Point) bool {
	n := len(z.Polygon)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := z.Polygon[i], z.Polygon[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) &&
			p.Lng < (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat)+a.Lng {
			inside = !inside
		}
	}
	return inside
}
