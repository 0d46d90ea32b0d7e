// Package schwab reads the JSON transaction export of Schwab Equity Awards
// accounts.
//
// The export restates neither share counts nor prices after a stock split:
// lots sold before the split keep their old basis. Realign fixes that before
// the lots are matched.
package schwab

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"slices"
	"strconv"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/pit/date"
)

// Detail is the description of one lot of a transaction, as exported.
// Values are kept as text, so that rewrites preserve their format.
type Detail map[string]string

// Transaction is one transaction of the export.
type Transaction struct {
	Date        date.Date
	Action      string
	Description string
	Quantity    string
	Fees        string // FeesAndCommissions
	Amount      string
	Details     []Detail
}

// Label returns the action and description, e.g. "Sale RS".
func (t Transaction) Label() string {
	if t.Description == "" {
		return t.Action
	}
	return t.Action + " " + t.Description
}

// text returns a JSON scalar as text.
func text(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Decode reads an export. A payload without a "Transactions" list holds no
// transaction. Items that are not objects or have no valid date are ignored.
// Transactions are returned oldest first, the export lists them newest first.
func Decode(r io.Reader) ([]Transaction, error) {
	var payload any
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("not a correct json: %w", err)
	}
	jitems, err := jsonpath.Get("$.Transactions", payload)
	if err != nil {
		log.Printf("export without transactions: %v", err)
		return nil, nil
	}
	items, ok := jitems.([]any)
	if !ok {
		log.Printf("export without transactions: \"Transactions\" is not a list")
		return nil, nil
	}

	var txs []Transaction
	for _, item := range items {
		jtx, ok := item.(map[string]any)
		if !ok {
			continue
		}
		on, err := date.ParseLayout(date.USFormat, text(jtx["Date"]))
		if err != nil {
			continue
		}
		tx := Transaction{
			Date:        on,
			Action:      text(jtx["Action"]),
			Description: text(jtx["Description"]),
			Quantity:    text(jtx["Quantity"]),
			Fees:        text(jtx["FeesAndCommissions"]),
			Amount:      text(jtx["Amount"]),
		}
		jdetails, _ := jtx["TransactionDetails"].([]any)
		for _, jd := range jdetails {
			wrapper, ok := jd.(map[string]any)
			if !ok {
				continue
			}
			fields, ok := wrapper["Details"].(map[string]any)
			if !ok {
				continue
			}
			detail := make(Detail, len(fields))
			for k, v := range fields {
				detail[k] = text(v)
			}
			tx.Details = append(tx.Details, detail)
		}
		txs = append(txs, tx)
	}
	slices.Reverse(txs)
	return txs, nil
}
