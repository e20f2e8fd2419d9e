// README: Pricing service resolves catalog entries and computes quotes.
package pricing

import (
	"context"

	"homeserve/internal/types"
)

type Catalog interface {
	GetService(ctx context.Context, id string) (ServiceItem, error)
}

type Service struct {
	store  Catalog
	taxBps int64
}

func NewService(store Catalog, taxBasisPoints int64) *Service {
	return &Service{store: store, taxBps: taxBasisPoints}
}

func (s *Service) GetService(ctx context.Context, id types.ID) (ServiceItem, error) {
	return s.store.GetService(ctx, string(id))
}

// Quote prices a service at its base price. Tax applies to base plus
// delivery fee and is rounded half up to the minor unit.
func (s *Service) Quote(item ServiceItem) Quote {
	currency := item.Currency
	if currency == "" {
		currency = types.DefaultCurrency
	}
	taxable := item.BasePrice + item.DeliveryFee
	return Quote{
		Estimated:   item.BasePrice,
		DeliveryFee: item.DeliveryFee,
		Tax:         (taxable*s.taxBps + 5000) / 10000,
		Currency:    currency,
	}
}
