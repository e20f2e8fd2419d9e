package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"googlemaps.github.io/maps"
)

func newTestGeocoder(t *testing.T, body string) *Geocoder {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("address") == "" {
			t.Errorf("missing address query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := maps.NewClient(maps.WithAPIKey("test-key"), maps.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("maps client: %v", err)
	}
	return &Geocoder{client: client, region: "in"}
}

func TestGeocode_FirstResult(t *testing.T) {
	g := newTestGeocoder(t, `{"status":"OK","results":[
		{"geometry":{"location":{"lat":12.9352,"lng":77.6245}}},
		{"geometry":{"location":{"lat":1,"lng":1}}}
	]}`)

	p, err := g.Geocode(context.Background(), "80 Feet Rd, Koramangala")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lat != 12.9352 || p.Lng != 77.6245 {
		t.Fatalf("unexpected point: %+v", p)
	}
}

func TestGeocode_ZeroResults(t *testing.T) {
	g := newTestGeocoder(t, `{"status":"ZERO_RESULTS","results":[]}`)

	if _, err := g.Geocode(context.Background(), "nowhere"); err == nil {
		t.Fatal("expected error for zero results")
	}
}
