package schwab

import (
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	"github.com/shopspring/decimal"
)

var forward = Split{Date: date.New(2024, 6, 10), Factor: 10}

func TestScores(t *testing.T) {
	post := &postSplit{
		refs: map[string]map[string]float64{
			"VestFairMarketValue":         {"VD": 10},
			"PurchasePrice":               {"PD": 10},
			"SubscriptionFairMarketValue": {"SD": 10},
		},
		min: 5,
		max: 15,
	}
	tests := []struct {
		name        string
		detail      Detail
		scale, keep int
		ok          bool
	}{
		{"empty", Detail{}, 0, 0, false},
		{"no value", Detail{"VestDate": "VD", "VestFairMarketValue": ""}, 0, 0, false},
		{"unknown origin", Detail{"VestDate": "UNKNOWN", "VestFairMarketValue": "$10"}, 0, 0, false},
		{"old basis", Detail{"VestDate": "VD", "VestFairMarketValue": "$100"}, 3, 0, true},
		{"new basis", Detail{"VestDate": "VD", "VestFairMarketValue": "$10"}, 0, 3, true},
		{"neither", Detail{"VestDate": "VD", "VestFairMarketValue": "$40"}, 0, 0, true},
		{"high sale price", Detail{"SalePrice": "$30"}, 1, 0, true},
		{"usual sale price", Detail{"SalePrice": "$10"}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scale, keep, ok := post.scores(tt.detail, forward)
			if scale != tt.scale || keep != tt.keep || ok != tt.ok {
				t.Errorf("scores(%v) = %d, %d, %v want %d, %d, %v", tt.detail, scale, keep, ok, tt.scale, tt.keep, tt.ok)
			}
		})
	}
}

func TestOutsideEnvelope(t *testing.T) {
	reverse := Split{Factor: 10, Reverse: true}
	if !outsideEnvelope(1, 10, 30, reverse) {
		t.Errorf("outsideEnvelope(1, 10, 30, reverse) = false want true")
	}
	if outsideEnvelope(40, 10, 30, forward) {
		t.Errorf("outsideEnvelope(40, 10, 30, forward) = true want false")
	}
}

func TestRescale(t *testing.T) {
	tests := []struct {
		in      string
		divide  bool
		want    string
		changed bool
	}{
		{"10", true, "1", true},
		{"2", false, "20", true},
		{"$100.00", false, "$1,000", true},
		{"$580.00", true, "$58", true},
		{"$422.39", true, "$42.239", true},
		{"-$1,234.50", false, "-$12,345", true},
		{"1,000", false, "10,000", true},
		{"bad", false, "bad", false},
		{"", false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, changed := rescale(tt.in, 10, tt.divide)
			if got != tt.want || changed != tt.changed {
				t.Errorf("rescale(%q) = %q, %v want %q, %v", tt.in, got, changed, tt.want, tt.changed)
			}
		})
	}
}

func TestScaleDetail(t *testing.T) {
	d := Detail{
		"Shares":                      "10",
		"NetSharesDeposited":          "2",
		"SharesWithheld":              "1",
		"SharesSold":                  "",
		"SalePrice":                   "$100.00",
		"PurchasePrice":               "$50.00",
		"SubscriptionFairMarketValue": "$20.00",
		"VestFairMarketValue":         "$40.00",
		"FairMarketValuePrice":        "$30.00",
		"PurchaseFairMarketValue":     "$10.00",
		"TotalCostBasis":              "$400.00",
	}
	changes := scaleDetail(d, Split{Factor: 10, Reverse: true})
	want := Detail{
		"Shares":                      "1",
		"NetSharesDeposited":          "0.2",
		"SharesWithheld":              "0.1",
		"SharesSold":                  "",
		"SalePrice":                   "$1,000",
		"PurchasePrice":               "$500",
		"SubscriptionFairMarketValue": "$200",
		"VestFairMarketValue":         "$400",
		"FairMarketValuePrice":        "$300",
		"PurchaseFairMarketValue":     "$100",
		"TotalCostBasis":              "$400.00",
	}
	if !maps.Equal(d, want) {
		t.Errorf("scaleDetail() = %v want %v", d, want)
	}
	if len(changes) != 9 {
		t.Errorf("scaleDetail() made %d changes want 9", len(changes))
	}
}

func TestSumShares(t *testing.T) {
	details := []Detail{{}, {"Shares": ""}, {"Shares": "2"}, {"Shares": "1.5"}}
	if got := sumShares(details, "1"); got != "3.5" {
		t.Errorf("sumShares() = %q want 3.5", got)
	}
	if got := sumShares([]Detail{{}}, "7"); got != "7" {
		t.Errorf("sumShares() = %q want 7", got)
	}
}

func TestAlign(t *testing.T) {
	none := &postSplit{refs: map[string]map[string]float64{}}
	on := date.New(2024, 1, 10)
	tests := []struct {
		name     string
		tx       Transaction
		align    func(*Transaction, *postSplit, Split) []pit.Change
		quantity string
		fields   []string
	}{
		{
			name:  "empty sale",
			tx:    Transaction{Date: on, Action: "Sale", Quantity: "0", Details: []Detail{{}}},
			align: alignSale, quantity: "0",
		},
		{
			name:  "sale price only",
			tx:    Transaction{Date: on, Action: "Sale", Quantity: "0", Details: []Detail{{"Type": "RS", "SalePrice": "$100.00"}}},
			align: alignSale, quantity: "0", fields: []string{"SalePrice"},
		},
		{
			name:  "sale",
			tx:    Transaction{Date: on, Action: "Sale", Quantity: "3", Details: []Detail{{"Shares": "1", "SalePrice": "$100.00"}, {"Shares": "2", "SalePrice": "$100.00"}}},
			align: alignSale, quantity: "30", fields: []string{"Shares", "SalePrice", "Shares", "SalePrice", "Quantity"},
		},
		{
			name:  "deposit",
			tx:    Transaction{Date: on, Action: "Deposit", Description: "RS", Quantity: "2", Details: []Detail{{"Type": "RS"}}},
			align: alignDeposit, quantity: "20", fields: []string{"Quantity"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := clone(tt.tx)
			changes := tt.align(&tx, none, forward)
			if tx.Quantity != tt.quantity {
				t.Errorf("Quantity = %q want %q", tx.Quantity, tt.quantity)
			}
			var fields []string
			for _, c := range changes {
				fields = append(fields, c.Field)
			}
			if strings.Join(fields, ",") != strings.Join(tt.fields, ",") {
				t.Errorf("changed %v want %v", fields, tt.fields)
			}
		})
	}
}

func TestAlignDepositKeepsNewBasis(t *testing.T) {
	post := &postSplit{refs: map[string]map[string]float64{"VestFairMarketValue": {"VD": 10}}}
	tx := Transaction{Action: "Deposit", Quantity: "2", Details: []Detail{{"VestDate": "VD", "VestFairMarketValue": "$10.00"}}}
	if changes := alignDeposit(&tx, post, forward); len(changes) != 0 || tx.Quantity != "2" {
		t.Errorf("alignDeposit() = %v, Quantity %q want no change", changes, tx.Quantity)
	}
}

// splitSales are two sales of the same kind of lot, the first one still on
// the basis before a ten for one split.
func splitSales(amount string) []Transaction {
	return []Transaction{
		{
			Date: date.New(2024, 1, 19), Action: "Sale", Description: "Share Sale", Quantity: "1", Fees: "$0.00", Amount: amount,
			Details: []Detail{{"Type": "RS", "Shares": "1", "SalePrice": "$580.00", "VestFairMarketValue": "$422.39", "TotalCostBasis": "$422.39"}},
		},
		{
			Date: date.New(2025, 1, 6), Action: "Sale", Description: "Share Sale", Quantity: "48", Fees: "$0.00", Amount: "$7,200.00",
			Details: []Detail{{"Type": "RS", "Shares": "48", "SalePrice": "$150.00", "VestFairMarketValue": "$42.239", "TotalCostBasis": "$2,027.47"}},
		},
	}
}

func TestRealign(t *testing.T) {
	txs := splitSales("$580.00")
	var logs pit.Logs
	got, err := Realign(txs, &logs)
	if err != nil {
		t.Fatalf("Realign() error: %v", err)
	}
	first := got[0]
	if first.Quantity != "10" || first.Details[0]["Shares"] != "10" || first.Details[0]["SalePrice"] != "$58" {
		t.Errorf("Realign()[0] = %+v want 10 shares at $58", first)
	}
	if txs[0].Quantity != "1" || txs[0].Details[0]["Shares"] != "1" {
		t.Errorf("Realign() modified its input: %+v", txs[0])
	}
	out := logs.String()
	for _, want := range []string{"[schwab] [01/19/2024] [Sale Share Sale]", "• Shares: 1 -> 10", "• Quantity: 1 -> 10", "• SalePrice: $580.00 -> $58"} {
		if !strings.Contains(out, want) {
			t.Errorf("logs = %q want %q", out, want)
		}
	}

	// Realigned transactions have nothing left to realign.
	var again pit.Logs
	if _, err := Realign(got, &again); err != nil || again.Len() != 0 {
		t.Errorf("Realign(realigned) = %v, %d log entries want nil, 0", err, again.Len())
	}
}

func TestRealignMismatch(t *testing.T) {
	_, err := Realign(splitSales("$700.00"), nil)
	var mismatch *pit.MismatchError
	if !errors.As(err, &mismatch) || mismatch.What != "sale amount" {
		t.Fatalf("Realign() error = %v want a sale amount mismatch", err)
	}
	if !strings.Contains(err.Error(), "01/19/2024 sale amount mismatch") {
		t.Errorf("Realign() error = %q", err)
	}
}

func TestValidate(t *testing.T) {
	on := date.New(2025, 1, 1)
	tests := []struct {
		name string
		tx   Transaction
		want string
	}{
		{"no amount", Transaction{Date: on, Action: "Sale"}, ""},
		{"unreadable lots", Transaction{Date: on, Action: "Sale", Amount: "$1.00", Details: []Detail{{"Shares": "", "SalePrice": "$1.00"}}}, ""},
		{"amount", Transaction{Date: on, Action: "Sale", Amount: "$1.00", Fees: "$0.00", Details: []Detail{{"Shares": "2", "SalePrice": "$1.00"}}}, "01/01/2025 sale amount mismatch"},
		{"fees", Transaction{Date: on, Action: "Sale", Amount: "$1.96", Fees: "$0.04", Details: []Detail{{"Shares": "2", "SalePrice": "$1.00"}}}, ""},
		{"dividend", Transaction{Date: on, Action: "Dividend", Amount: "$1.00", Details: []Detail{{"Shares": "2", "SalePrice": "$1.00"}}}, ""},
		{"basis", Transaction{Date: on, Action: "Sale", Details: []Detail{
			{"Shares": "", "TotalCostBasis": "$1.00"},
			{"Shares": "1", "TotalCostBasis": "$1.00", "VestFairMarketValue": "", "PurchasePrice": ""},
			{"Shares": "2", "TotalCostBasis": "$1.00", "VestFairMarketValue": "$1.00"},
		}}, "01/01/2025 cost basis mismatch"},
		{"purchase basis", Transaction{Date: on, Action: "Sale", Details: []Detail{{"Shares": "2", "TotalCostBasis": "$10.05", "PurchasePrice": "$5.00"}}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate([]Transaction{tt.tx})
			got := ""
			if err != nil {
				got = err.Error()
			}
			if got != tt.want {
				t.Errorf("validate() = %q want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	if got := format(decimal.RequireFromString("1234567.5"), "€1.00"); got != "€1,234,567.5" {
		t.Errorf("format() = %q want €1,234,567.5", got)
	}
}
