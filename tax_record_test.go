package pit

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTaxRecordDerived(t *testing.T) {
	tests := []struct {
		name   string
		record TaxRecord
		got    func(TaxRecord) decimal.Decimal
		want   string
	}{
		{"trade profit", TaxRecord{TradeRevenue: d("100"), TradeCost: d("40"), TradeLossFromPreviousYears: d("10")}, TaxRecord.TradeProfit, "50"},
		{"trade loss nil on profit", TaxRecord{TradeRevenue: d("100"), TradeCost: d("40"), TradeLossFromPreviousYears: d("10")}, TaxRecord.TradeLoss, "0"},
		{"trade tax", TaxRecord{TradeRevenue: d("100"), TradeCost: d("40"), TradeLossFromPreviousYears: d("10")}, TaxRecord.TradeTax, "9.5"},
		{"trade loss", TaxRecord{TradeRevenue: d("10"), TradeCost: d("40")}, TaxRecord.TradeLoss, "30"},
		{"trade profit clamped", TaxRecord{TradeRevenue: d("10"), TradeCost: d("40")}, TaxRecord.TradeProfit, "0"},
		{"crypto profit", TaxRecord{CryptoRevenue: d("300"), CryptoCost: d("100"), CryptoCostExcessFromPreviousYears: d("50")}, TaxRecord.CryptoProfit, "150"},
		{"crypto cost excess", TaxRecord{CryptoRevenue: d("100"), CryptoCost: d("300")}, TaxRecord.CryptoCostExcess, "200"},
		{"crypto tax", TaxRecord{CryptoRevenue: d("200")}, TaxRecord.CryptoTax, "38"},
		{"domestic interest tax", TaxRecord{DomesticInterest: d("100")}, TaxRecord.DomesticInterestTax, "19"},
		{"foreign interest remaining", TaxRecord{ForeignInterest: d("100"), ForeignInterestWithholdingTax: d("15")}, TaxRecord.ForeignInterestRemainingTax, "4"},
		{"foreign interest over withheld", TaxRecord{ForeignInterest: d("100"), ForeignInterestWithholdingTax: d("30")}, TaxRecord.ForeignInterestRemainingTax, "0"},
		{"employment profit negative", TaxRecord{EmploymentRevenue: d("10"), EmploymentCost: d("20")}, TaxRecord.EmploymentProfit, "-10"},
		{"donation capped", TaxRecord{EmploymentRevenue: d("1000"), Donations: d("100")}, TaxRecord.EmploymentProfitDeduction, "60"},
		{"donation under cap", TaxRecord{EmploymentRevenue: d("1000"), Donations: d("20")}, TaxRecord.EmploymentProfitDeduction, "20"},
		{"no solidarity tax", TaxRecord{EmploymentRevenue: d("999999")}, TaxRecord.SolidarityTax, "0"},
		{"solidarity tax", TaxRecord{EmploymentRevenue: d("1100000"), TradeRevenue: d("100000"), SocialSecurityContributions: d("50000")}, TaxRecord.SolidarityTax, "6000"},
		{"total tax", TaxRecord{TradeRevenue: d("100"), DomesticInterest: d("100"), ForeignInterest: d("100"), ForeignInterestWithholdingTax: d("15")}, TaxRecord.TotalTax, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.got(tt.record); !got.Equal(d(tt.want)) {
				t.Errorf("%s = %v want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestTaxRecordAdd(t *testing.T) {
	a := TaxRecord{TradeRevenue: d("1"), Donations: d("2")}
	b := TaxRecord{TradeRevenue: d("3"), ForeignInterest: d("4")}
	got := a.Add(b)
	want := TaxRecord{TradeRevenue: d("4"), Donations: d("2"), ForeignInterest: d("4")}
	if !got.Equal(want) {
		t.Errorf("Add() = %+v want %+v", got, want)
	}
	if !a.TradeRevenue.Equal(d("1")) {
		t.Errorf("Add() modified its receiver: %v", a.TradeRevenue)
	}
}

func TestTaxRecordAddField(t *testing.T) {
	var r TaxRecord
	if err := r.AddField("crypto_cost", d("5")); err != nil {
		t.Fatal(err)
	}
	if err := r.AddField("crypto_cost", d("2")); err != nil {
		t.Fatal(err)
	}
	if !r.CryptoCost.Equal(d("7")) {
		t.Errorf("CryptoCost = %v want 7", r.CryptoCost)
	}
	if err := r.AddField("salary", d("1")); err == nil {
		t.Errorf("AddField(\"salary\") expected an error")
	}
}

func TestTaxRecordItems(t *testing.T) {
	items := TaxRecord{TradeRevenue: d("10")}.Items()
	if len(items) != 16 {
		t.Fatalf("len(Items()) = %d want 16", len(items))
	}
	if items[0].Name != "Trade Revenue" || items[0].PIT != "PIT-38/C20" || !items[0].Value.Equal(d("10")) {
		t.Errorf("Items()[0] = %+v", items[0])
	}
	if last := items[len(items)-1]; last.Name != "Total Tax" || last.PIT != "" {
		t.Errorf("last item = %+v want Total Tax without label", last)
	}
}

func TestTaxRecordMarshalJSON(t *testing.T) {
	b, err := json.Marshal(TaxRecord{TradeRevenue: d("100"), TradeCost: d("40")})
	if err != nil {
		t.Fatal(err)
	}
	got := string(b)
	if !strings.HasPrefix(got, `{"trade_revenue":"100","trade_cost":"40",`) {
		t.Errorf("MarshalJSON() = %s", got)
	}
	if !strings.Contains(got, `"trade_tax":"11.4"`) {
		t.Errorf("MarshalJSON() = %s want trade_tax 11.4", got)
	}
}

func TestTaxReportSet(t *testing.T) {
	var r TaxReport
	if err := r.Set(2024, TaxRecord{TradeRevenue: d("1")}); err != nil {
		t.Fatal(err)
	}
	err := r.Set(2024, TaxRecord{})
	var dup *DuplicateYearError
	if !errors.As(err, &dup) || dup.Year != 2024 {
		t.Errorf("Set(2024) twice error = %v want DuplicateYearError", err)
	}
	if got := r.Get(2023); !got.IsZero() {
		t.Errorf("Get(2023) = %+v want empty record", got)
	}
}

func TestTaxReportAdd(t *testing.T) {
	report := func(recs map[int]TaxRecord) TaxReport {
		var r TaxReport
		for y, rec := range recs {
			if err := r.Set(y, rec); err != nil {
				t.Fatal(err)
			}
		}
		return r
	}
	x := report(map[int]TaxRecord{2023: {TradeRevenue: d("1")}, 2024: {TradeCost: d("2")}})
	y := report(map[int]TaxRecord{2024: {TradeCost: d("3")}, 2025: {Donations: d("4")}})
	z := report(map[int]TaxRecord{2025: {Donations: d("5")}})

	sum := x.Add(y)
	if got := sum.Years(); len(got) != 3 || got[0] != 2023 || got[2] != 2025 {
		t.Errorf("Years() = %v want [2023 2024 2025]", got)
	}
	if got := sum.Get(2024).TradeCost; !got.Equal(d("5")) {
		t.Errorf("2024 trade cost = %v want 5", got)
	}

	tests := []struct {
		name string
		a, b TaxReport
	}{
		{"commutative", x.Add(y), y.Add(x)},
		{"associative", x.Add(y).Add(z), x.Add(y.Add(z))},
		{"identity", TaxReport{}.Add(x), x},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.a.Equal(tt.b) {
				t.Errorf("reports differ: %+v != %+v", tt.a, tt.b)
			}
		})
	}
}
