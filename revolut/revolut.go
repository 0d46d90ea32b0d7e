// Package revolut reads Revolut savings account statements, whose gross
// interest is taxed as domestic interest.
package revolut

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	"github.com/shopspring/decimal"
)

// interestPrefix marks the interest lines, e.g. "Gross interest paid".
const interestPrefix = "Gross interest"

// moneyIn matches the signed amount of a "Money in" cell like "+1,234.50 PLN".
var moneyIn = regexp.MustCompile(`[+-]?\d+(?:\.\d*)?`)

// Interest is an interest payment in PLN.
type Interest struct {
	Date   date.Date
	Amount decimal.Decimal
}

func parseAmount(s string) (decimal.Decimal, error) {
	m := moneyIn.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return decimal.NewFromString(m)
}

// Parse reads a statement and returns its interest payments.
func Parse(r io.Reader) ([]Interest, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("missing header: %w", err)
	}
	col := make(map[string]int)
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"Description", "Completed Date", "Money in"} {
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

	var interests []Interest
	for {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return interests, nil
		}
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(get(line, "Description"), interestPrefix) {
			continue
		}
		// Completed dates may carry a time of day.
		day, _, _ := strings.Cut(get(line, "Completed Date"), " ")
		on, err := date.ParseAny(day, date.DayFirstDash, date.DayFirstSlash, date.DateFormat)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(get(line, "Money in"))
		if err != nil {
			return nil, err
		}
		interests = append(interests, Interest{Date: on, Amount: amount})
	}
}

// Reporter reads Revolut savings statements.
type Reporter struct {
	Paths []string `validate:"min=1,dive,required,ext=.csv"`
}

func (r *Reporter) Name() string    { return "revolut" }
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
		interests, err := parseFile(path)
		if err != nil {
			return pit.TaxReport{}, err
		}
		for _, in := range interests {
			rec := recs.At(in.Date.Year())
			rec.DomesticInterest = rec.DomesticInterest.Add(in.Amount)
		}
	}
	return recs.Report()
}

func parseFile(path string) ([]Interest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	interests, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return interests, nil
}
