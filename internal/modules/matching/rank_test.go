package matching

import (
	"testing"

	"homeserve/internal/types"
)

// kmNorth returns a point d km north of p.
func kmNorth(p types.Point, d float64) *types.Point {
	return &types.Point{Lat: p.Lat + d/111.195, Lng: p.Lng}
}

func ids(rs []Ranked) []types.ID {
	out := make([]types.ID, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestRank_TieBandPrefersRating(t *testing.T) {
	origin := types.Point{Lat: 12.90, Lng: 77.60}
	techs := []Technician{
		{ID: "C", Rating: 5.0, Location: kmNorth(origin, 2.0)},
		{ID: "B", Rating: 4.2, Location: kmNorth(origin, 0.4)},
		{ID: "A", Rating: 4.9, Location: kmNorth(origin, 0.3)},
	}

	got := ids(Rank(origin, techs))
	want := []types.ID{"A", "B", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Rank() = %v, want %v", got, want)
		}
	}
}

func TestRank_BetterRatingWinsInsideBand(t *testing.T) {
	origin := types.Point{Lat: 12.90, Lng: 77.60}
	techs := []Technician{
		{ID: "near", Rating: 3.1, Location: kmNorth(origin, 0.1)},
		{ID: "good", Rating: 4.8, Location: kmNorth(origin, 0.5)},
	}
	got := ids(Rank(origin, techs))
	if got[0] != "good" {
		t.Fatalf("expected better-rated technician first, got %v", got)
	}
}

func TestRank_DistanceWinsOutsideBand(t *testing.T) {
	origin := types.Point{Lat: 12.90, Lng: 77.60}
	techs := []Technician{
		{ID: "far", Rating: 5.0, Location: kmNorth(origin, 1.5)},
		{ID: "near", Rating: 3.0, Location: kmNorth(origin, 0.2)},
	}
	got := ids(Rank(origin, techs))
	if got[0] != "near" {
		t.Fatalf("expected nearer technician first, got %v", got)
	}
}

func TestRank_UnknownLocationLast(t *testing.T) {
	origin := types.Point{Lat: 12.90, Lng: 77.60}
	techs := []Technician{
		{ID: "ghost", Rating: 5.0},
		{ID: "far", Rating: 2.0, Location: kmNorth(origin, 9)},
	}
	rs := Rank(origin, techs)
	if rs[0].ID != "far" || rs[1].ID != "ghost" {
		t.Fatalf("unexpected order: %v", ids(rs))
	}
	if rs[1].DistanceKm != UnknownDistance {
		t.Errorf("expected unknown distance, got %f", rs[1].DistanceKm)
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	origin := types.Point{Lat: 12.90, Lng: 77.60}
	techs := []Technician{
		{ID: "b", Rating: 1, Location: kmNorth(origin, 3)},
		{ID: "a", Rating: 1, Location: kmNorth(origin, 1)},
	}
	Rank(origin, techs)
	if techs[0].ID != "b" {
		t.Fatalf("input reordered: %v", techs)
	}
}

func TestRank_Empty(t *testing.T) {
	if got := Rank(types.Point{}, nil); len(got) != 0 {
		t.Fatalf("expected empty, got %d", len(got))
	}
}
