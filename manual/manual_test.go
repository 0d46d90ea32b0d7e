package manual

import (
	"context"
	"testing"

	"github.com/etnz/pit"
	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	trade, err := ParseTrade("2024:1000:800")
	if err != nil {
		t.Fatal(err)
	}
	if want := (Trade{"2024", "1000", "800", "0"}); *trade != want {
		t.Errorf("ParseTrade() = %v want %v", *trade, want)
	}
	crypto, err := ParseCrypto("2023:10:20:5")
	if err != nil {
		t.Fatal(err)
	}
	if want := (Crypto{"2023", "10", "20", "5"}); *crypto != want {
		t.Errorf("ParseCrypto() = %v want %v", *crypto, want)
	}
	employment, err := ParseEmployment("2025:100000:3000:12000")
	if err != nil {
		t.Fatal(err)
	}
	if want := (Employment{"2025", "100000", "3000", "12000", "0"}); *employment != want {
		t.Errorf("ParseEmployment() = %v want %v", *employment, want)
	}
}

func TestParseErrors(t *testing.T) {
	for _, entry := range []string{"", "2024", "2024:1", "2024:1:2:3:4"} {
		t.Run(entry, func(t *testing.T) {
			if _, err := ParseTrade(entry); err == nil {
				t.Errorf("ParseTrade(%q) succeeded want an error", entry)
			}
		})
	}
	if _, err := ParseEmployment("2024:1:2:3:4"); err != nil {
		t.Errorf("ParseEmployment() with 4 values failed: %v", err)
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		reporter pit.Reporter
		field    func(pit.TaxRecord) decimal.Decimal
		want     string
	}{
		{"trade", &Trade{"2024", "1000", "800", "50"}, func(r pit.TaxRecord) decimal.Decimal { return r.TradeProfit() }, "150"},
		{"crypto", &Crypto{"2024", "100", "300", "0"}, func(r pit.TaxRecord) decimal.Decimal { return r.CryptoCostExcess() }, "200"},
		{"employment", &Employment{"2024", "1000", "200", "10", "100"}, func(r pit.TaxRecord) decimal.Decimal { return r.EmploymentProfitDeduction() }, "48"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := tt.reporter.Generate(context.Background(), nil)
			if err != nil {
				t.Fatal(err)
			}
			if got := tt.field(report.Get(2024)); !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Generate() = %v want %s", got, tt.want)
			}
			if report.Len() != 1 {
				t.Errorf("Generate() years = %v want [2024]", report.Years())
			}
		})
	}
}

func TestGenerateInvalid(t *testing.T) {
	for name, r := range map[string]pit.Reporter{
		"empty year":    &Trade{"", "1", "1", "0"},
		"decimal year":  &Crypto{"2024.5", "1", "1", "0"},
		"text amount":   &Trade{"2024", "ten", "1", "0"},
		"missing value": &Employment{"2024", "1", "", "0", "0"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := r.Generate(context.Background(), nil); err == nil {
				t.Errorf("Generate() succeeded want an error")
			}
		})
	}
}
