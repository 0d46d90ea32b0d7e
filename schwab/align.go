package schwab

import (
	"errors"
	"math"
	"strings"

	"github.com/etnz/pit"
	"github.com/shopspring/decimal"
)

const (
	actionSale    = "Sale"
	actionDeposit = "Deposit"
	actionLapse   = "Lapse"

	// envelopeRatio is how far outside the post split range a sale price
	// must be to suggest the old basis.
	envelopeRatio = 1.6

	saleTolerance  = 0.05
	basisTolerance = 0.10
)

var (
	shareKeys = []string{"Shares", "NetSharesDeposited", "SharesWithheld", "SharesSold"}
	priceKeys = []string{"SalePrice", "PurchasePrice", "SubscriptionFairMarketValue", "VestFairMarketValue", "FairMarketValuePrice", "PurchaseFairMarketValue"}
)

// postSplit holds the values observed on the new basis.
type postSplit struct {
	refs     map[string]map[string]float64 // value key, origin: first value
	min, max float64                       // sale prices, zero when none
}

func newPostSplit(txs []Transaction, split Split) *postSplit {
	p := &postSplit{refs: make(map[string]map[string]float64)}
	for _, tx := range txs {
		if tx.Date.Before(split.Date) {
			continue
		}
		for _, d := range tx.Details {
			p.observe(d)
		}
	}
	return p
}

func (p *postSplit) observe(d Detail) {
	for _, ref := range references {
		origin := d[ref.dateKey]
		v, ok := unit(d[ref.valueKey])
		if origin == "" || !ok {
			continue
		}
		m := p.refs[ref.valueKey]
		if m == nil {
			m = make(map[string]float64)
			p.refs[ref.valueKey] = m
		}
		if _, exists := m[origin]; !exists {
			m[origin] = v
		}
	}
	if v, ok := unit(d["SalePrice"]); ok {
		if p.max == 0 {
			p.min, p.max = v, v
		}
		p.min, p.max = min(p.min, v), max(p.max, v)
	}
}

// outsideEnvelope reports whether a sale price is too far from the post split
// prices, in the direction of the old basis.
func outsideEnvelope(price, lo, hi float64, split Split) bool {
	if split.Reverse {
		return price < lo/envelopeRatio
	}
	return price > hi*envelopeRatio
}

// scores rates how much a pre split detail looks like the old basis.
// It returns false when the detail carries no evidence at all.
func (p *postSplit) scores(d Detail, split Split) (scale, keep int, ok bool) {
	for _, ref := range references {
		origin := d[ref.dateKey]
		v, valid := unit(d[ref.valueKey])
		if origin == "" || !valid {
			continue
		}
		r, known := p.refs[ref.valueKey][origin]
		if !known {
			continue
		}
		ok = true
		switch {
		case closerToScaledValue(v, r, split.Factor, split.Reverse) && isClose(v, preSplit(r, split.Factor, split.Reverse)):
			scale += 3
		case isClose(v, r):
			keep += 3
		}
	}
	if price, valid := unit(d["SalePrice"]); valid && p.max > 0 && outsideEnvelope(price, p.min, p.max, split) {
		scale++
		ok = true
	}
	return scale, keep, ok
}

// format writes v the way like is written: same sign and currency symbol,
// thousands separators for money.
func format(v decimal.Decimal, like string) string {
	like = strings.TrimSpace(like)
	sign := ""
	if strings.HasPrefix(like, "-") {
		sign, like = "-", like[1:]
	}
	symbol := ""
	if r := []rune(like); len(r) > 0 && !strings.ContainsRune("0123456789.", r[0]) {
		symbol = string(r[0])
	}
	v = v.Abs().Round(6)
	s := v.String()
	if symbol == "" && !strings.Contains(like, ",") {
		return sign + s
	}
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if frac != "" {
		b.WriteString("." + frac)
	}
	return sign + symbol + b.String()
}

// number parses an exported share count or amount.
func number(s string) (decimal.Decimal, bool) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, false
	}
	v, _, err := pit.ParseAmount(s)
	return v, err == nil
}

// rescale multiplies (or divides) the value written in s.
func rescale(s string, factor int, divide bool) (string, bool) {
	v, ok := number(s)
	if !ok {
		return s, false
	}
	f := decimal.NewFromInt(int64(factor))
	if divide {
		v = v.Div(f)
	} else {
		v = v.Mul(f)
	}
	return format(v, s), true
}

// scaleDetail converts a detail to the new basis: more shares at a lower
// price for a forward split.
func scaleDetail(d Detail, split Split) []pit.Change {
	var changes []pit.Change
	apply := func(keys []string, divide bool) {
		for _, k := range keys {
			before, present := d[k]
			if !present {
				continue
			}
			after, ok := rescale(before, split.Factor, divide)
			if !ok || after == before {
				continue
			}
			d[k] = after
			changes = append(changes, pit.Change{Field: k, Before: before, After: after})
		}
	}
	apply(shareKeys, split.Reverse)
	apply(priceKeys, !split.Reverse)
	return changes
}

// sumShares returns the total of the detail shares, or fallback when none
// can be read.
func sumShares(details []Detail, fallback string) string {
	total, found := decimal.Zero, false
	for _, d := range details {
		if v, ok := number(d["Shares"]); ok {
			total, found = total.Add(v), true
		}
	}
	if !found {
		return fallback
	}
	return format(total, fallback)
}

func clone(tx Transaction) Transaction {
	details := make([]Detail, len(tx.Details))
	for i, d := range tx.Details {
		c := make(Detail, len(d))
		for k, v := range d {
			c[k] = v
		}
		details[i] = c
	}
	tx.Details = details
	return tx
}

// alignSale scales the details that look like the old basis. Unknown and
// tied details are scaled.
func alignSale(tx *Transaction, post *postSplit, split Split) []pit.Change {
	var changes []pit.Change
	scaled := false
	for _, d := range tx.Details {
		scale, keep, ok := post.scores(d, split)
		if ok && keep > scale {
			continue
		}
		scaled = true
		changes = append(changes, scaleDetail(d, split)...)
	}
	if scaled {
		if q := sumShares(tx.Details, tx.Quantity); q != tx.Quantity {
			changes = append(changes, pit.Change{Field: "Quantity", Before: tx.Quantity, After: q})
			tx.Quantity = q
		}
	}
	return changes
}

// alignDeposit scales the whole transaction unless a detail is known to be
// on the new basis already.
func alignDeposit(tx *Transaction, post *postSplit, split Split) []pit.Change {
	for _, d := range tx.Details {
		if scale, keep, ok := post.scores(d, split); ok && keep > scale {
			return nil
		}
	}
	var changes []pit.Change
	for _, d := range tx.Details {
		changes = append(changes, scaleDetail(d, split)...)
	}
	if q, ok := rescale(tx.Quantity, split.Factor, split.Reverse); ok && q != tx.Quantity {
		changes = append(changes, pit.Change{Field: "Quantity", Before: tx.Quantity, After: q})
		tx.Quantity = q
	}
	return changes
}

// Realign detects a stock split in the transactions and converts the
// transactions before it to the new basis. Every rewrite is recorded in logs.
//
// Realigned books must be consistent: sale amounts must match their lots and
// lot cost basis must match their unit values, otherwise an error joining
// every *pit.MismatchError is returned.
//
// Detection is a heuristic: an export with no split, or with a split no
// value betrays, is returned unchanged.
func Realign(txs []Transaction, logs *pit.Logs) ([]Transaction, error) {
	split, found := DetectSplit(txs, DefaultSaleWindow)
	if !found {
		return txs, nil
	}
	post := newPostSplit(txs, split)
	aligned := make([]Transaction, len(txs))
	for i, tx := range txs {
		aligned[i] = tx
		if !tx.Date.Before(split.Date) {
			continue
		}
		tx = clone(tx)
		var changes []pit.Change
		switch tx.Action {
		case actionSale:
			changes = alignSale(&tx, post, split)
		case actionDeposit, actionLapse:
			changes = alignDeposit(&tx, post, split)
		default:
			continue
		}
		aligned[i] = tx
		logs.Add(pit.LogEntry{Source: "schwab", Date: tx.Date, Action: tx.Label(), Changes: changes})
	}
	return aligned, validate(aligned)
}

func validate(txs []Transaction) error {
	var errs []error
	for _, tx := range txs {
		if tx.Action != actionSale {
			continue
		}
		if !saleAmountMatches(tx) {
			errs = append(errs, &pit.MismatchError{Date: tx.Date, What: "sale amount"})
		}
		if !costBasisMatches(tx) {
			errs = append(errs, &pit.MismatchError{Date: tx.Date, What: "cost basis"})
		}
	}
	return errors.Join(errs...)
}

func near(a, b decimal.Decimal, tolerance float64) bool {
	return math.Abs(a.Sub(b).InexactFloat64()) <= tolerance
}

// saleAmountMatches checks that the lots sold add up to the sale amount, net
// of fees. Sales without any readable lot are not checked.
func saleAmountMatches(tx Transaction) bool {
	amount, ok := number(tx.Amount)
	if !ok {
		return true
	}
	gross, found := decimal.Zero, false
	for _, d := range tx.Details {
		shares, ok1 := number(d["Shares"])
		price, ok2 := number(d["SalePrice"])
		if ok1 && ok2 {
			gross, found = gross.Add(shares.Mul(price)), true
		}
	}
	if !found {
		return true
	}
	fees, _ := number(tx.Fees)
	return near(gross.Sub(fees.Abs()), amount, saleTolerance)
}

// costBasisMatches checks every lot cost basis against its unit value.
func costBasisMatches(tx Transaction) bool {
	for _, d := range tx.Details {
		shares, ok1 := number(d["Shares"])
		basis, ok2 := number(d["TotalCostBasis"])
		if !ok1 || !ok2 {
			continue
		}
		price, ok := number(d["VestFairMarketValue"])
		if !ok {
			price, ok = number(d["PurchasePrice"])
		}
		if !ok {
			continue
		}
		if !near(shares.Mul(price), basis, basisTolerance) {
			return false
		}
	}
	return true
}
