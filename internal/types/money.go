// README: Money value object; amounts are minor units (paise) so arithmetic stays exact.
package types

const DefaultCurrency = "INR"

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func NewMoney(amount int64, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: amount, Currency: currency}
}

// Share returns the given percentage of m, rounded down.
func (m Money) Share(percent int64) Money {
	return Money{Amount: m.Amount * percent / 100, Currency: m.Currency}
}
