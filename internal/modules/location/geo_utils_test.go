package location

import (
	"math"
	"testing"

	"homeserve/internal/types"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lng1      float64
		lat2      float64
		lng2      float64
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			lat1:      25.033, lng1: 121.565,
			lat2:      25.033, lng2: 121.565,
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "Koramangala to Indiranagar (~5km)",
			lat1:      12.9352, lng1: 77.6245,
			lat2:      12.9719, lng2: 77.6412,
			wantKm:    4.5,
			tolerance: 1.0,
		},
		{
			name:      "New York to Los Angeles (~3944km)",
			lat1:      40.7128, lng1: -74.0060,
			lat2:      34.0522, lng2: -118.2437,
			wantKm:    3944,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := haversineKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("haversineKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversineKm_Symmetry(t *testing.T) {
	d1 := haversineKm(25.0, 121.0, 26.0, 122.0)
	d2 := haversineKm(26.0, 122.0, 25.0, 121.0)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("haversine is not symmetric: %f vs %f", d1, d2)
	}
}

func TestHaversineKm_PointWrapper(t *testing.T) {
	a := types.Point{Lat: 12.90, Lng: 77.60}
	b := types.Point{Lat: 12.90 + 0.3/111.195, Lng: 77.60}
	got := HaversineKm(a, b)
	if math.Abs(got-0.3) > 0.01 {
		t.Errorf("HaversineKm() = %f, want ~0.3", got)
	}
}
