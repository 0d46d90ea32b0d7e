package pit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// amountPattern matches exported amounts like "-$1,234.50", "€12" or "3.40".
var amountPattern = regexp.MustCompile(`^\s*(-?)([$€£]?)([\d,.]+)`)

// symbolCurrencies are the currencies whose symbol may prefix an amount.
var symbolCurrencies = []string{money.USD, money.EUR, money.GBP}

// currencyOfSymbol returns the ISO code for a currency symbol, or "".
func currencyOfSymbol(symbol string) string {
	for _, code := range symbolCurrencies {
		if c := money.GetCurrency(code); c != nil && c.Grapheme == symbol {
			return code
		}
	}
	return ""
}

// ParseAmount parses a signed amount optionally prefixed by a currency symbol.
//
// It returns the value and the currency inferred from the symbol ("" when
// there is none). The currency is returned even when the number is invalid.
func ParseAmount(s string) (decimal.Decimal, string, error) {
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, "", fmt.Errorf("invalid amount %q", s)
	}
	currency := currencyOfSymbol(m[2])
	v, err := decimal.NewFromString(strings.ReplaceAll(m[3], ",", ""))
	if err != nil {
		return decimal.Zero, currency, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if m[1] == "-" {
		v = v.Neg()
	}
	return v, currency, nil
}

// ParseMoney parses an amount. A non empty currency takes precedence over the
// one inferred from the symbol.
func ParseMoney(s, currency string) (Money, error) {
	v, inferred, err := ParseAmount(s)
	if err != nil {
		return Money{}, err
	}
	if currency == "" {
		currency = inferred
	}
	return M(v, currency), nil
}
