package pricing

import (
	"context"
	"testing"
)

type stubCatalog map[string]ServiceItem

func (c stubCatalog) GetService(_ context.Context, id string) (ServiceItem, error) {
	it, ok := c[id]
	if !ok {
		return ServiceItem{}, ErrNotFound
	}
	return it, nil
}

func TestService_Quote(t *testing.T) {
	tests := []struct {
		name    string
		taxBps  int64
		item    ServiceItem
		want    Quote
		wantSum int64
	}{
		{
			name:    "base only, no tax",
			taxBps:  0,
			item:    ServiceItem{BasePrice: 49900, Currency: "INR"},
			want:    Quote{Estimated: 49900, Currency: "INR"},
			wantSum: 49900,
		},
		{
			name:    "18% GST on base plus delivery",
			taxBps:  1800,
			item:    ServiceItem{BasePrice: 50000, DeliveryFee: 5000, Currency: "INR"},
			want:    Quote{Estimated: 50000, DeliveryFee: 5000, Tax: 9900, Currency: "INR"},
			wantSum: 64900,
		},
		{
			name:    "tax rounds half up",
			taxBps:  1800,
			item:    ServiceItem{BasePrice: 25},
			want:    Quote{Estimated: 25, Tax: 5, Currency: "INR"},
			wantSum: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(stubCatalog{}, tt.taxBps)
			got := svc.Quote(tt.item)
			if got != tt.want {
				t.Errorf("Quote() = %+v, want %+v", got, tt.want)
			}
			if got.Total() != tt.wantSum {
				t.Errorf("Total() = %d, want %d", got.Total(), tt.wantSum)
			}
		})
	}
}

func TestService_GetServiceNotFound(t *testing.T) {
	svc := NewService(stubCatalog{"ac-repair": {ID: "ac-repair"}}, 0)
	if _, err := svc.GetService(context.Background(), "plumbing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetService(context.Background(), "ac-repair"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
