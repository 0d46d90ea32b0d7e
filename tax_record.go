package pit

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tax rates and thresholds of the Polish PIT.
var (
	TaxRate              = decimal.RequireFromString("0.19")
	SolidarityRate       = decimal.RequireFromString("0.04")
	SolidarityThreshold  = decimal.NewFromInt(1_000_000)
	DonationDeductionCap = decimal.RequireFromString("0.06")
)

// TaxRecord holds the yearly totals in PLN, and computes the tax due.
//
// Only raw figures are stored, everything else is derived.
type TaxRecord struct {
	TradeRevenue                      decimal.Decimal
	TradeCost                         decimal.Decimal
	TradeLossFromPreviousYears        decimal.Decimal
	CryptoRevenue                     decimal.Decimal
	CryptoCost                        decimal.Decimal
	CryptoCostExcessFromPreviousYears decimal.Decimal
	DomesticInterest                  decimal.Decimal
	ForeignInterest                   decimal.Decimal
	ForeignInterestWithholdingTax     decimal.Decimal
	EmploymentRevenue                 decimal.Decimal
	EmploymentCost                    decimal.Decimal
	SocialSecurityContributions       decimal.Decimal
	Donations                         decimal.Decimal
}

// fields lists the raw figures with their snake_case names, in declaration order.
func (t *TaxRecord) fields() []struct {
	name string
	v    *decimal.Decimal
} {
	return []struct {
		name string
		v    *decimal.Decimal
	}{
		{"trade_revenue", &t.TradeRevenue},
		{"trade_cost", &t.TradeCost},
		{"trade_loss_from_previous_years", &t.TradeLossFromPreviousYears},
		{"crypto_revenue", &t.CryptoRevenue},
		{"crypto_cost", &t.CryptoCost},
		{"crypto_cost_excess_from_previous_years", &t.CryptoCostExcessFromPreviousYears},
		{"domestic_interest", &t.DomesticInterest},
		{"foreign_interest", &t.ForeignInterest},
		{"foreign_interest_withholding_tax", &t.ForeignInterestWithholdingTax},
		{"employment_revenue", &t.EmploymentRevenue},
		{"employment_cost", &t.EmploymentCost},
		{"social_security_contributions", &t.SocialSecurityContributions},
		{"donations", &t.Donations},
	}
}

// FieldNames returns the snake_case names of the raw figures.
func FieldNames() []string {
	var t TaxRecord
	var names []string
	for _, f := range t.fields() {
		names = append(names, f.name)
	}
	return names
}

// AddField adds v to the raw figure named 'name' (snake_case).
func (t *TaxRecord) AddField(name string, v decimal.Decimal) error {
	for _, f := range t.fields() {
		if f.name == name {
			*f.v = f.v.Add(v)
			return nil
		}
	}
	return fmt.Errorf("unknown tax record field %q", name)
}

// Add returns the field by field sum of two records.
func (t TaxRecord) Add(o TaxRecord) TaxRecord {
	sum := t
	of := o.fields()
	for i, f := range sum.fields() {
		*f.v = f.v.Add(*of[i].v)
	}
	return sum
}

// Equal reports whether all raw figures are equal.
func (t TaxRecord) Equal(o TaxRecord) bool {
	of := o.fields()
	for i, f := range t.fields() {
		if !f.v.Equal(*of[i].v) {
			return false
		}
	}
	return true
}

// IsZero reports whether all raw figures are zero.
func (t TaxRecord) IsZero() bool { return t.Equal(TaxRecord{}) }

func positive(d decimal.Decimal) decimal.Decimal { return decimal.Max(d, decimal.Zero) }

func (t TaxRecord) tradeResult() decimal.Decimal {
	return t.TradeRevenue.Sub(t.TradeCost).Sub(t.TradeLossFromPreviousYears)
}

func (t TaxRecord) cryptoResult() decimal.Decimal {
	return t.CryptoRevenue.Sub(t.CryptoCost).Sub(t.CryptoCostExcessFromPreviousYears)
}

// TradeProfit is the taxable trade income after past losses.
func (t TaxRecord) TradeProfit() decimal.Decimal { return positive(t.tradeResult()) }

// TradeLoss is the trade loss to carry over to next years.
func (t TaxRecord) TradeLoss() decimal.Decimal { return positive(t.tradeResult().Neg()) }

func (t TaxRecord) TradeTax() decimal.Decimal { return t.TradeProfit().Mul(TaxRate) }

func (t TaxRecord) CryptoProfit() decimal.Decimal { return positive(t.cryptoResult()) }

// CryptoCostExcess is the crypto cost to carry over to next years.
func (t TaxRecord) CryptoCostExcess() decimal.Decimal { return positive(t.cryptoResult().Neg()) }

func (t TaxRecord) CryptoTax() decimal.Decimal { return t.CryptoProfit().Mul(TaxRate) }

func (t TaxRecord) DomesticInterestTax() decimal.Decimal { return t.DomesticInterest.Mul(TaxRate) }

func (t TaxRecord) ForeignInterestTax() decimal.Decimal { return t.ForeignInterest.Mul(TaxRate) }

// ForeignInterestRemainingTax is the foreign interest tax left once tax withheld abroad is deducted.
func (t TaxRecord) ForeignInterestRemainingTax() decimal.Decimal {
	return positive(t.ForeignInterestTax().Sub(t.ForeignInterestWithholdingTax))
}

// EmploymentProfit can be negative.
func (t TaxRecord) EmploymentProfit() decimal.Decimal {
	return t.EmploymentRevenue.Sub(t.EmploymentCost)
}

// EmploymentProfitDeduction is the donation deduction, capped at 6% of the employment profit.
func (t TaxRecord) EmploymentProfitDeduction() decimal.Decimal {
	return decimal.Min(DonationDeductionCap.Mul(t.EmploymentProfit()), t.Donations)
}

func (t TaxRecord) TotalProfit() decimal.Decimal {
	return t.EmploymentProfit().Add(t.TradeProfit()).Add(t.CryptoProfit())
}

func (t TaxRecord) TotalProfitDeductions() decimal.Decimal {
	return t.EmploymentProfitDeduction().Add(t.SocialSecurityContributions)
}

// SolidarityTax is the 4% surcharge on income above one million.
func (t TaxRecord) SolidarityTax() decimal.Decimal {
	base := t.TotalProfit().Sub(t.TotalProfitDeductions()).Sub(SolidarityThreshold)
	return positive(base).Mul(SolidarityRate)
}

// TotalTax does not include the income tax on employment, only its solidarity surcharge.
func (t TaxRecord) TotalTax() decimal.Decimal {
	return t.TradeTax().
		Add(t.CryptoTax()).
		Add(t.DomesticInterestTax()).
		Add(t.ForeignInterestRemainingTax()).
		Add(t.SolidarityTax())
}

// Item is one line of the yearly statement.
type Item struct {
	Name  string
	PIT   string // where the value goes in the tax forms, if anywhere.
	Value decimal.Decimal
}

// Items returns the lines of the yearly statement, in form order.
func (t TaxRecord) Items() []Item {
	return []Item{
		{"Trade Revenue", "PIT-38/C20", t.TradeRevenue},
		{"Trade Cost", "PIT-38/C21", t.TradeCost},
		{"Trade Loss from Previous Years", "PIT-38/D28", t.TradeLossFromPreviousYears},
		{"Trade Loss", "PIT-38/D28 - Next Year", t.TradeLoss()},
		{"Crypto Revenue", "PIT-38/E34", t.CryptoRevenue},
		{"Crypto Cost", "PIT-38/E35", t.CryptoCost},
		{"Crypto Cost Excess from Previous Years", "PIT-38/E36", t.CryptoCostExcessFromPreviousYears},
		{"Crypto Cost Excess", "PIT-38/E36 - Next Year", t.CryptoCostExcess()},
		{"Domestic Interest Tax", "PIT-38/G44", t.DomesticInterestTax()},
		{"Foreign Interest Tax", "PIT-38/G45", t.ForeignInterestTax()},
		{"Foreign Interest Withholding Tax", "PIT-38/G46", t.ForeignInterestWithholdingTax},
		{"Employment Profit Deduction", "PIT/O/B11 -> PIT-37/F124", t.EmploymentProfitDeduction()},
		{"Total Profit", "DSF-1/C18 - If Solidarity Tax > 0.00", t.TotalProfit()},
		{"Total Profit Deductions", "DSF-1/C19 - If Solidarity Tax > 0.00", t.TotalProfitDeductions()},
		{"Solidarity Tax", "", t.SolidarityTax()},
		{"Total Tax", "", t.TotalTax()},
	}
}

// MarshalJSON writes raw figures then derived ones.
func (t TaxRecord) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	for _, f := range t.fields() {
		w.Append(f.name, f.v)
	}
	w.Append("trade_profit", t.TradeProfit())
	w.Append("trade_loss", t.TradeLoss())
	w.Append("trade_tax", t.TradeTax())
	w.Append("crypto_profit", t.CryptoProfit())
	w.Append("crypto_cost_excess", t.CryptoCostExcess())
	w.Append("crypto_tax", t.CryptoTax())
	w.Append("domestic_interest_tax", t.DomesticInterestTax())
	w.Append("foreign_interest_tax", t.ForeignInterestTax())
	w.Append("foreign_interest_remaining_tax", t.ForeignInterestRemainingTax())
	w.Append("employment_profit", t.EmploymentProfit())
	w.Append("employment_profit_deduction", t.EmploymentProfitDeduction())
	w.Append("total_profit", t.TotalProfit())
	w.Append("total_profit_deductions", t.TotalProfitDeductions())
	w.Append("solidarity_tax", t.SolidarityTax())
	w.Append("total_tax", t.TotalTax())
	return w.MarshalJSON()
}
