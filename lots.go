package pit

import (
	"github.com/etnz/pit/date"
	"github.com/shopspring/decimal"
)

// Lot is a dated quantity of an instrument at a unit price.
type Lot struct {
	Date     date.Date
	Quantity Quantity
	Price    Money // unit price, fees included when the source attaches them to the trade
}

// Realized is the part of a sell matched against the part of a buy.
type Realized struct {
	Quantity Quantity
	BuyDate  date.Date
	SellDate date.Date
	Buy      Money // buy price of the matched quantity
	Sell     Money // sell price of the matched quantity
	BuyPLN   decimal.Decimal
	SellPLN  decimal.Decimal
}

// Year returns the year the gain or loss is realized in.
func (r Realized) Year() int { return r.SellDate.Year() }

// MatchFIFO matches sells against the oldest outstanding buys.
//
// Both buys and sells must be sorted by date. Lots are split when quantities
// differ. Sells left once buys are exhausted produce nothing. Each leg is
// converted to PLN at the rate of its own date.
func MatchFIFO(buys, sells []Lot, rates Rates) ([]Realized, error) {
	// remaining quantities, the caller's lots are left untouched.
	buyLeft := make([]Quantity, len(buys))
	for i, b := range buys {
		buyLeft[i] = b.Quantity
	}
	sellLeft := make([]Quantity, len(sells))
	for i, s := range sells {
		sellLeft[i] = s.Quantity
	}

	var realized []Realized
	bi, si := 0, 0
	for bi < len(buys) && si < len(sells) {
		buy, sell := buys[bi], sells[si]
		var matched Quantity
		switch {
		case buyLeft[bi].Equal(sellLeft[si]):
			matched = buyLeft[bi]
			bi, si = bi+1, si+1
		case buyLeft[bi].LessThan(sellLeft[si]):
			matched = buyLeft[bi]
			sellLeft[si] = sellLeft[si].Sub(matched)
			bi++
		default:
			matched = sellLeft[si]
			buyLeft[bi] = buyLeft[bi].Sub(matched)
			si++
		}

		r := Realized{
			Quantity: matched,
			BuyDate:  buy.Date,
			SellDate: sell.Date,
			Buy:      buy.Price.Mul(matched),
			Sell:     sell.Price.Mul(matched),
		}
		var err error
		if r.BuyPLN, err = ToPLN(rates, r.Buy, r.BuyDate); err != nil {
			return nil, err
		}
		if r.SellPLN, err = ToPLN(rates, r.Sell, r.SellDate); err != nil {
			return nil, err
		}
		realized = append(realized, r)
	}
	return realized, nil
}
