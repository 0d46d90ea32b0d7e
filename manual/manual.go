// Package manual holds the yearly figures entered by hand.
//
// Amounts are kept as text, as entered, and checked by their `validate` tags
// before any computation.
package manual

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/etnz/pit"
	"github.com/shopspring/decimal"
)

// Trade holds the yearly trade figures in PLN.
type Trade struct {
	Year                  string `validate:"required,number"`
	Revenue               string `validate:"required,numeric"`
	Cost                  string `validate:"required,numeric"`
	LossFromPreviousYears string `validate:"required,numeric"`
}

func (t *Trade) Name() string    { return "trade" }
func (t *Trade) Details() string { return "Year: " + t.Year }

func (t *Trade) Generate(ctx context.Context, logs *pit.Logs) (pit.TaxReport, error) {
	return generate(t, t.Year, []figure{
		{"trade_revenue", t.Revenue},
		{"trade_cost", t.Cost},
		{"trade_loss_from_previous_years", t.LossFromPreviousYears},
	})
}

// Crypto holds the yearly crypto figures in PLN.
type Crypto struct {
	Year                        string `validate:"required,number"`
	Revenue                     string `validate:"required,numeric"`
	Cost                        string `validate:"required,numeric"`
	CostExcessFromPreviousYears string `validate:"required,numeric"`
}

func (c *Crypto) Name() string    { return "crypto" }
func (c *Crypto) Details() string { return "Year: " + c.Year }

func (c *Crypto) Generate(ctx context.Context, logs *pit.Logs) (pit.TaxReport, error) {
	return generate(c, c.Year, []figure{
		{"crypto_revenue", c.Revenue},
		{"crypto_cost", c.Cost},
		{"crypto_cost_excess_from_previous_years", c.CostExcessFromPreviousYears},
	})
}

// Employment holds the yearly employment figures in PLN.
type Employment struct {
	Year                        string `validate:"required,number"`
	Revenue                     string `validate:"required,numeric"`
	Cost                        string `validate:"required,numeric"`
	SocialSecurityContributions string `validate:"required,numeric"`
	Donations                   string `validate:"required,numeric"`
}

func (e *Employment) Name() string    { return "employment" }
func (e *Employment) Details() string { return "Year: " + e.Year }

func (e *Employment) Generate(ctx context.Context, logs *pit.Logs) (pit.TaxReport, error) {
	return generate(e, e.Year, []figure{
		{"employment_revenue", e.Revenue},
		{"employment_cost", e.Cost},
		{"social_security_contributions", e.SocialSecurityContributions},
		{"donations", e.Donations},
	})
}

// figure is a TaxRecord field and its entered value.
type figure struct {
	field string
	value string
}

func generate(entry any, year string, figures []figure) (pit.TaxReport, error) {
	if err := pit.Validate(entry); err != nil {
		return pit.TaxReport{}, err
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return pit.TaxReport{}, err
	}
	var rec pit.TaxRecord
	for _, f := range figures {
		v, err := decimal.NewFromString(f.value)
		if err != nil {
			return pit.TaxReport{}, fmt.Errorf("invalid %s %q: %w", f.field, f.value, err)
		}
		if err := rec.AddField(f.field, v); err != nil {
			return pit.TaxReport{}, err
		}
	}
	var report pit.TaxReport
	if err := report.Set(y, rec); err != nil {
		return pit.TaxReport{}, err
	}
	return report, nil
}

// split cuts an entry like "2024:1000:800" into its year and n values.
// At least two values are required, missing ones are "0".
func split(entry string, n int) (string, []string, error) {
	parts := strings.Split(entry, ":")
	if len(parts) < 3 || len(parts) > n+1 {
		return "", nil, fmt.Errorf("invalid entry %q want year:v1:v2 with up to %d values", entry, n)
	}
	values := make([]string, n)
	for i := range values {
		values[i] = "0"
		if i+1 < len(parts) {
			values[i] = strings.TrimSpace(parts[i+1])
		}
	}
	return strings.TrimSpace(parts[0]), values, nil
}

// ParseTrade parses "year:revenue:cost[:loss from previous years]".
func ParseTrade(entry string) (*Trade, error) {
	year, v, err := split(entry, 3)
	if err != nil {
		return nil, err
	}
	return &Trade{Year: year, Revenue: v[0], Cost: v[1], LossFromPreviousYears: v[2]}, nil
}

// ParseCrypto parses "year:revenue:cost[:cost excess from previous years]".
func ParseCrypto(entry string) (*Crypto, error) {
	year, v, err := split(entry, 3)
	if err != nil {
		return nil, err
	}
	return &Crypto{Year: year, Revenue: v[0], Cost: v[1], CostExcessFromPreviousYears: v[2]}, nil
}

// ParseEmployment parses "year:revenue:cost[:social security contributions[:donations]]".
func ParseEmployment(entry string) (*Employment, error) {
	year, v, err := split(entry, 4)
	if err != nil {
		return nil, err
	}
	return &Employment{Year: year, Revenue: v[0], Cost: v[1], SocialSecurityContributions: v[2], Donations: v[3]}, nil
}
