package schwab

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/etnz/pit"
)

// Reporter reads Schwab Equity Awards JSON exports.
type Reporter struct {
	Paths []string  `validate:"min=1,dive,required,ext=.json"`
	Rates pit.Rates `validate:"required"`
}

func (r *Reporter) Name() string    { return "schwab" }
func (r *Reporter) Details() string { return strings.Join(r.Paths, ", ") }

// Generate reads every export, realigns the transactions across a stock split
// and folds them into a TaxReport.
func (r *Reporter) Generate(ctx context.Context, logs *pit.Logs) (pit.TaxReport, error) {
	if err := pit.Validate(r); err != nil {
		return pit.TaxReport{}, err
	}
	var txs []Transaction
	for _, path := range r.Paths {
		loaded, err := load(path)
		if err != nil {
			return pit.TaxReport{}, err
		}
		txs = append(txs, loaded...)
	}
	slices.SortStableFunc(txs, func(a, b Transaction) int { return a.Date.Compare(b.Date) })

	txs, err := Realign(txs, logs)
	if err != nil {
		return pit.TaxReport{}, err
	}
	book := pit.NewBook(r.Rates)
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return pit.TaxReport{}, err
		}
		rows, err := Rows(tx)
		if err != nil {
			return pit.TaxReport{}, fmt.Errorf("%s %s: %w", tx.Date, tx.Label(), err)
		}
		for _, row := range rows {
			if err := book.Add(row); err != nil {
				return pit.TaxReport{}, err
			}
		}
	}
	return book.Report()
}

func load(path string) ([]Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	txs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return txs, nil
}

// currency is the currency of amounts without a symbol.
const currency = "USD"

// amount parses an exported amount, empty means zero.
func amount(s string) (pit.Money, error) {
	if strings.TrimSpace(s) == "" {
		return pit.M(0, currency), nil
	}
	m, err := pit.ParseMoney(s, "")
	if err != nil {
		return pit.Money{}, err
	}
	if m.Currency() == "" {
		m = m.WithCurrency(currency)
	}
	return m, nil
}

func quantity(s string) (pit.Quantity, error) {
	if strings.TrimSpace(s) == "" {
		return pit.Q(0), nil
	}
	return pit.ParseQuantity(s)
}

// Rows converts a transaction into the rows of a pit.Book.
func Rows(tx Transaction) ([]pit.Row, error) {
	switch tx.Action {
	case "Deposit":
		q, err := quantity(tx.Quantity)
		if err != nil {
			return nil, err
		}
		price := pit.M(0, currency)
		if len(tx.Details) > 0 {
			if price, err = amount(tx.Details[0]["PurchasePrice"]); err != nil {
				return nil, err
			}
		}
		return []pit.Row{{Date: tx.Date, Action: pit.Deposit, Key: tx.Description, Quantity: q, Price: price}}, nil

	case "Sale":
		fees, err := amount(tx.Fees)
		if err != nil {
			return nil, err
		}
		if len(tx.Details) == 0 {
			// No lot to match, only the fees count.
			return []pit.Row{{Date: tx.Date, Action: pit.Sell, Key: tx.Description, Quantity: pit.Q(0), Price: pit.M(0, fees.Currency()), Fees: fees}}, nil
		}
		rows := make([]pit.Row, 0, len(tx.Details))
		for i, d := range tx.Details {
			q, err := quantity(d["Shares"])
			if err != nil {
				return nil, err
			}
			price, err := amount(d["SalePrice"])
			if err != nil {
				return nil, err
			}
			key := d["Type"]
			if key == "" {
				key = tx.Description
			}
			row := pit.Row{Date: tx.Date, Action: pit.Sell, Key: key, Quantity: q.Neg(), Price: price, Fees: pit.M(0, fees.Currency())}
			if i == 0 {
				row.Fees = fees
			}
			rows = append(rows, row)
		}
		return rows, nil

	case "Lapse":
		return nil, nil

	case "Dividend", "Tax Withholding":
		a, err := amount(tx.Amount)
		if err != nil {
			return nil, err
		}
		action := pit.Dividend
		if tx.Action == "Tax Withholding" {
			action = pit.WithholdingTax
		}
		return []pit.Row{{Date: tx.Date, Action: action, Amount: a}}, nil

	case "Wire Transfer":
		fees, err := amount(tx.Fees)
		if err != nil {
			return nil, err
		}
		return []pit.Row{{Date: tx.Date, Action: pit.Fee, Amount: fees}}, nil
	}
	return nil, &pit.UnknownActionError{Source: "schwab", Action: tx.Action}
}
