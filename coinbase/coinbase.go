// Package coinbase reads Coinbase transaction history CSV exports.
package coinbase

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
)

// preamble is the number of lines before the CSV header.
const preamble = 3

// Only advanced trades are taxable events, other transactions are
// transfers, rewards or card spends.
const (
	advancedBuy  = "Advanced Trade Buy"
	advancedSell = "Advanced Trade Sell"
)

// Trade is a crypto trade, amounts in the quote currency.
type Trade struct {
	Date     date.Date
	Sell     bool
	Subtotal pit.Money
	Fees     pit.Money
}

// Parse reads a transaction history export.
func Parse(r io.Reader) ([]Trade, error) {
	br := bufio.NewReader(r)
	for range preamble {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("missing preamble: %w", err)
		}
	}
	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("missing header: %w", err)
	}
	col := make(map[string]int)
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"Timestamp", "Transaction Type", "Subtotal", "Fees and/or Spread", "Price Currency"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	get := func(line []string, name string) string {
		if i := col[name]; i < len(line) {
			return strings.TrimSpace(line[i])
		}
		return ""
	}

	var trades []Trade
	for {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return trades, nil
		}
		if err != nil {
			return nil, err
		}
		kind := get(line, "Transaction Type")
		if kind != advancedBuy && kind != advancedSell {
			continue
		}
		on, err := date.ParseLayout(date.DateFormat, get(line, "Timestamp"))
		if err != nil {
			return nil, err
		}
		currency := get(line, "Price Currency")
		subtotal, err := pit.ParseMoney(get(line, "Subtotal"), currency)
		if err != nil {
			return nil, err
		}
		fees, err := pit.ParseMoney(get(line, "Fees and/or Spread"), currency)
		if err != nil {
			return nil, err
		}
		trades = append(trades, Trade{Date: on, Sell: kind == advancedSell, Subtotal: subtotal, Fees: fees})
	}
}

// Reporter reads Coinbase exports.
//
// Crypto costs are deductible the year they are incurred: buys are costs,
// sells are revenues, there is no lot matching.
type Reporter struct {
	Paths []string  `validate:"min=1,dive,required,ext=.csv"`
	Rates pit.Rates `validate:"required"`
}

func (r *Reporter) Name() string    { return "coinbase" }
func (r *Reporter) Details() string { return strings.Join(r.Paths, ", ") }

func (r *Reporter) Generate(ctx context.Context, logs *pit.Logs) (pit.TaxReport, error) {
	if err := pit.Validate(r); err != nil {
		return pit.TaxReport{}, err
	}
	recs := make(pit.Records)
	for _, path := range r.Paths {
		if err := ctx.Err(); err != nil {
			return pit.TaxReport{}, err
		}
		trades, err := parseFile(path)
		if err != nil {
			return pit.TaxReport{}, err
		}
		for _, t := range trades {
			if err := r.add(recs.At(t.Date.Year()), t); err != nil {
				return pit.TaxReport{}, err
			}
		}
	}
	return recs.Report()
}

func (r *Reporter) add(rec *pit.TaxRecord, t Trade) error {
	subtotal, err := pit.ToPLN(r.Rates, t.Subtotal.Abs(), t.Date)
	if err != nil {
		return err
	}
	fees, err := pit.ToPLN(r.Rates, t.Fees.Abs(), t.Date)
	if err != nil {
		return err
	}
	rec.CryptoCost = rec.CryptoCost.Add(fees)
	if t.Sell {
		rec.CryptoRevenue = rec.CryptoRevenue.Add(subtotal)
	} else {
		rec.CryptoCost = rec.CryptoCost.Add(subtotal)
	}
	return nil
}

func parseFile(path string) ([]Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	trades, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trades, nil
}
