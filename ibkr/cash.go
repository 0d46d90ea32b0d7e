// Package ibkr reads Interactive Brokers statements, either activity
// statement CSV exports or statements downloaded from the Flex Web Service.
package ibkr

import (
	"regexp"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	"github.com/shopspring/decimal"
)

// Trade is an execution. Quantity is negative for sells, Proceeds is
// negative for buys and Commission is usually negative.
type Trade struct {
	Date       date.Date
	Symbol     string
	Currency   string
	Quantity   decimal.Decimal
	Proceeds   decimal.Decimal
	Commission decimal.Decimal
}

// Row returns the trade as a lot of a pit.Book, commissions in the price.
func (t Trade) Row() pit.Row {
	action := pit.Buy
	if t.Quantity.IsNegative() {
		action = pit.Sell
	}
	price := t.Proceeds.Add(t.Commission).Div(t.Quantity.Neg())
	return pit.Row{
		Date:     t.Date,
		Action:   action,
		Key:      t.Symbol,
		Quantity: pit.Q(t.Quantity),
		Price:    pit.M(price, t.Currency),
	}
}

// Cash is a dividend, interest or withholding tax line.
type Cash struct {
	Date        date.Date
	Currency    string
	Description string
	Amount      decimal.Decimal
}

// Withholding taxes are reported apart from the income they are withheld
// from. Both descriptions are normalized to pair them, e.g.
//
//	AAPL(US0378331005) Cash Dividend USD 0.24 per Share (Ordinary Dividend)
//	AAPL(US0378331005) Cash Dividend USD 0.24 per Share - US Tax
//	USD Credit Interest for Dec-2024
//	Withholding @ 20% on Credit Interest for Dec-2024
var (
	dividendSuffix = regexp.MustCompile(`\s*\([^()]*\)\s*$`)
	dividendTax    = regexp.MustCompile(`\s-\s?.*$`)
	interestPrefix = regexp.MustCompile(`^[A-Z]{3}\s+`)
	interestTax    = regexp.MustCompile(`(?i)^.*?\bon\b\s*`)
)

// income pairs incomes with the withholding taxes matching their normalized
// description, in the same currency. A tax is paired at most once.
type income struct {
	kind       pit.Action
	incomeDesc *regexp.Regexp
	taxDesc    *regexp.Regexp
	incomes    []Cash
}

var (
	dividends = income{kind: pit.Dividend, incomeDesc: dividendSuffix, taxDesc: dividendTax}
	interests = income{kind: pit.Interest, incomeDesc: interestPrefix, taxDesc: interestTax}
)

func normalize(re *regexp.Regexp, s string) string {
	return strings.TrimSpace(re.ReplaceAllString(s, ""))
}

// rows returns the income rows, each followed by the taxes withheld from it.
// Taxes are converted at the date of the income. used flags the taxes
// already paired.
func (in income) rows(taxes []Cash, used []bool) []pit.Row {
	var rows []pit.Row
	for _, c := range in.incomes {
		rows = append(rows, pit.Row{Date: c.Date, Action: in.kind, Amount: pit.M(c.Amount, c.Currency)})
		key := normalize(in.incomeDesc, c.Description)
		for i, tax := range taxes {
			if used[i] || tax.Currency != c.Currency || normalize(in.taxDesc, tax.Description) != key {
				continue
			}
			used[i] = true
			rows = append(rows, pit.Row{Date: c.Date, Action: pit.WithholdingTax, Amount: pit.M(tax.Amount, tax.Currency)})
		}
	}
	return rows
}

// Statement is the content of one or more statements.
type Statement struct {
	Trades    []Trade
	Dividends []Cash
	Interests []Cash
	Taxes     []Cash // withholding taxes
}

// Append adds the content of s to the statement.
func (st *Statement) Append(s Statement) {
	st.Trades = append(st.Trades, s.Trades...)
	st.Dividends = append(st.Dividends, s.Dividends...)
	st.Interests = append(st.Interests, s.Interests...)
	st.Taxes = append(st.Taxes, s.Taxes...)
}

// IsEmpty reports whether the statement has no trade nor cash line.
func (st Statement) IsEmpty() bool {
	return len(st.Trades)+len(st.Dividends)+len(st.Interests)+len(st.Taxes) == 0
}

// firstYear returns the earliest year of the statement, or 0.
func (st Statement) firstYear() int {
	first := 0
	see := func(d date.Date) {
		if first == 0 || d.Year() < first {
			first = d.Year()
		}
	}
	for _, t := range st.Trades {
		see(t.Date)
	}
	for _, list := range [][]Cash{st.Dividends, st.Interests, st.Taxes} {
		for _, c := range list {
			see(c.Date)
		}
	}
	return first
}

// Report folds the statement into a TaxReport. Every year from the first
// one of the statement up to the current year is part of the report.
// Withholding taxes that match no income are ignored.
func (st Statement) Report(rates pit.Rates) (pit.TaxReport, error) {
	book := pit.NewBook(rates)
	if first := st.firstYear(); first > 0 {
		for y := first; y <= date.Today().Year(); y++ {
			book.Open(y)
		}
	}
	for _, t := range st.Trades {
		if t.Quantity.IsZero() {
			continue
		}
		if err := book.Add(t.Row()); err != nil {
			return pit.TaxReport{}, err
		}
	}
	used := make([]bool, len(st.Taxes))
	div, intr := dividends, interests
	div.incomes, intr.incomes = st.Dividends, st.Interests
	for _, in := range []income{div, intr} {
		for _, row := range in.rows(st.Taxes, used) {
			if err := book.Add(row); err != nil {
				return pit.TaxReport{}, err
			}
		}
	}
	return book.Report()
}
