package pit

import (
	"maps"
	"slices"

	"github.com/etnz/pit/date"
)

// Row is a transaction normalized from a source export.
type Row struct {
	Date     date.Date
	Action   Action
	Key      string   // instrument grouping the lots: symbol, plan.
	Quantity Quantity // positive for Buy and Deposit, negative for Sell.
	Price    Money    // unit price
	Fees     Money    // fees not already in Price
	Amount   Money    // cash amount of dividends, interest, withholding and fees
}

// Book folds the rows of a trading account into a TaxReport.
//
// Cash actions are converted and summed as they come. Lots are kept per
// instrument and matched in Report.
type Book struct {
	rates Rates
	buys  map[string][]Lot
	sells map[string][]Lot
	recs  Records
}

// NewBook returns an empty book converting amounts with rates.
func NewBook(rates Rates) *Book {
	return &Book{
		rates: rates,
		buys:  make(map[string][]Lot),
		sells: make(map[string][]Lot),
		recs:  make(Records),
	}
}

// Add folds a row.
func (b *Book) Add(r Row) error {
	rec := b.recs.At(r.Date.Year())
	switch r.Action {
	case Buy, Deposit:
		b.buys[r.Key] = append(b.buys[r.Key], Lot{Date: r.Date, Quantity: r.Quantity.Abs(), Price: r.Price})
		return b.addCost(rec, r.Fees, r.Date)
	case Sell:
		b.sells[r.Key] = append(b.sells[r.Key], Lot{Date: r.Date, Quantity: r.Quantity.Abs(), Price: r.Price})
		return b.addCost(rec, r.Fees, r.Date)
	case Dividend, Interest:
		pln, err := ToPLN(b.rates, r.Amount, r.Date)
		if err != nil {
			return err
		}
		rec.ForeignInterest = rec.ForeignInterest.Add(pln)
	case WithholdingTax:
		pln, err := ToPLN(b.rates, r.Amount.Abs(), r.Date)
		if err != nil {
			return err
		}
		rec.ForeignInterestWithholdingTax = rec.ForeignInterestWithholdingTax.Add(pln)
	case Fee:
		return b.addCost(rec, r.Amount, r.Date)
	case Lapse:
	default:
		return &UnknownActionError{Source: "book", Action: r.Action.String()}
	}
	return nil
}

func (b *Book) addCost(rec *TaxRecord, fees Money, on date.Date) error {
	pln, err := ToPLN(b.rates, fees.Abs(), on)
	if err != nil {
		return err
	}
	rec.TradeCost = rec.TradeCost.Add(pln)
	return nil
}

// Open makes sure the year is part of the report, even without any figure.
func (b *Book) Open(year int) { b.recs.At(year) }

// Report matches the lots of every instrument and returns the yearly records.
// It must be called once, after all rows are added.
func (b *Book) Report() (TaxReport, error) {
	byDate := func(x, y Lot) int { return x.Date.Compare(y.Date) }
	for _, key := range slices.Sorted(maps.Keys(b.sells)) {
		buys, sells := slices.Clone(b.buys[key]), slices.Clone(b.sells[key])
		slices.SortStableFunc(buys, byDate)
		slices.SortStableFunc(sells, byDate)
		realized, err := MatchFIFO(buys, sells, b.rates)
		if err != nil {
			return TaxReport{}, err
		}
		for _, r := range realized {
			rec := b.recs.At(r.Year())
			rec.TradeRevenue = rec.TradeRevenue.Add(r.SellPLN)
			rec.TradeCost = rec.TradeCost.Add(r.BuyPLN)
		}
	}
	return b.recs.Report()
}
