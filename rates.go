package pit

import (
	"fmt"

	"github.com/etnz/pit/date"
	"github.com/shopspring/decimal"
)

// Rates gives the exchange rate to PLN of a currency on a date.
type Rates interface {
	Rate(currency string, on date.Date) (float64, error)
}

// ToPLN converts m at the rate of its own date.
func ToPLN(rates Rates, m Money, on date.Date) (decimal.Decimal, error) {
	if m.IsZero() {
		return decimal.Zero, nil
	}
	if m.Currency() == PLN {
		return m.Amount(), nil
	}
	rate, err := rates.Rate(m.Currency(), on)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot convert %s on %v: %w", m, on, err)
	}
	return m.Convert(rate), nil
}

// FixedRates is a Rates implementation returning constant rates per currency.
// It is meant for tests and manual what-if computations.
type FixedRates map[string]float64

func (f FixedRates) Rate(currency string, on date.Date) (float64, error) {
	if currency == PLN {
		return 1, nil
	}
	rate, ok := f[currency]
	if !ok {
		return 0, fmt.Errorf("%s on %v: %w", currency, on, ErrRateUnavailable)
	}
	return rate, nil
}
