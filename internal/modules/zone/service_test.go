package zone

import (
	"context"
	"errors"
	"testing"

	"homeserve/internal/types"
)

type stubLister struct {
	zones []Zone
	err   error
}

func (s stubLister) ListActive(context.Context) ([]Zone, error) { return s.zones, s.err }

var koramangala = Zone{
	ID:   "blr-koramangala",
	Name: "Koramangala",
	Polygon: []types.Point{
		{Lat: 12.92, Lng: 77.60},
		{Lat: 12.92, Lng: 77.64},
		{Lat: 12.95, Lng: 77.64},
		{Lat: 12.95, Lng: 77.60},
	},
}

func TestZoneContains(t *testing.T) {
	tests := []struct {
		name string
		p    types.Point
		want bool
	}{
		{"inside", types.Point{Lat: 12.935, Lng: 77.62}, true},
		{"north of zone", types.Point{Lat: 12.97, Lng: 77.62}, false},
		{"west of zone", types.Point{Lat: 12.935, Lng: 77.55}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := koramangala.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestZoneContains_DegeneratePolygon(t *testing.T) {
	z := Zone{Polygon: []types.Point{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}}
	if z.Contains(types.Point{Lat: 1.5, Lng: 1.5}) {
		t.Fatal("two-point polygon must not contain anything")
	}
}

func TestCheckServiceability(t *testing.T) {
	svc := NewService(stubLister{zones: []Zone{koramangala}})

	got, err := svc.CheckServiceability(context.Background(), types.Point{Lat: 12.93, Lng: 77.61})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Serviceable || got.ZoneID != "blr-koramangala" {
		t.Fatalf("unexpected result: %+v", got)
	}

	got, err = svc.CheckServiceability(context.Background(), types.Point{Lat: 28.61, Lng: 77.20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Serviceable {
		t.Fatalf("Delhi should not be serviceable: %+v", got)
	}
}

func TestCheckServiceability_StoreError(t *testing.T) {
	svc := NewService(stubLister{err: errors.New("db down")})
	if _, err := svc.CheckServiceability(context.Background(), types.Point{}); err == nil {
		t.Fatal("expected error")
	}
}
