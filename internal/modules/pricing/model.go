// README: Service catalog entries and booking quotes.
package pricing

import "errors"

var ErrNotFound = errors.New("service not found")

type ServiceItem struct {
	ID          string
	Name        string
	Category    string
	BasePrice   int64
	DeliveryFee int64
	Currency    string
}

// Quote is the price breakdown frozen on a booking at creation.
type Quote struct {
	Estimated   int64
	DeliveryFee int64
	Tax         int64
	Discount    int64
	Currency    string
}

func (q Quote) Total() int64 {
	return q.Estimated + q.DeliveryFee + q.Tax - q.Discount
}
