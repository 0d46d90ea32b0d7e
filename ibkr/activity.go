package ibkr

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	"github.com/shopspring/decimal"
)

// An activity statement CSV stacks sections. Each line starts with the
// section name and a row kind: "Header" lines name the columns of the
// following "Data" lines.
const (
	sectionTrades      = "Trades"
	sectionDividends   = "Dividends"
	sectionInterest    = "Interest"
	sectionWithholding = "Withholding Tax"
)

// columns maps column names to their index in a section line.
type columns map[string]int

func (c columns) get(line []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(line) {
		return ""
	}
	return strings.TrimSpace(line[i])
}

// number parses a number written with thousands separators. Empty is zero.
func number(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "--" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// ParseActivity reads an activity statement CSV. Lines of other sections
// and lines without a valid date (totals) are ignored.
func ParseActivity(r io.Reader) (Statement, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var st Statement
	headers := make(map[string]columns)
	for lineno := 1; ; lineno++ {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Statement{}, err
		}
		if len(line) < 2 {
			continue
		}
		section := strings.TrimPrefix(line[0], "\ufeff")
		switch line[1] {
		case "Header":
			cols := make(columns, len(line))
			for i, name := range line {
				cols[strings.TrimSpace(name)] = i
			}
			headers[section] = cols
			continue
		case "Data":
		default:
			continue
		}
		cols, ok := headers[section]
		if !ok {
			continue
		}
		if err := st.addLine(section, cols, line); err != nil {
			return Statement{}, fmt.Errorf("line %d: %w", lineno, err)
		}
	}
	return st, nil
}

func (st *Statement) addLine(section string, cols columns, line []string) error {
	switch section {
	case sectionTrades:
		on, err := date.ParseLayout(date.DateFormat, cols.get(line, "Date/Time"))
		if err != nil {
			return nil
		}
		t := Trade{Date: on, Symbol: cols.get(line, "Symbol"), Currency: cols.get(line, "Currency")}
		if t.Quantity, err = number(cols.get(line, "Quantity")); err != nil {
			return fmt.Errorf("invalid quantity: %w", err)
		}
		if t.Proceeds, err = number(cols.get(line, "Proceeds")); err != nil {
			return fmt.Errorf("invalid proceeds: %w", err)
		}
		if t.Commission, err = number(cols.get(line, "Comm/Fee")); err != nil {
			return fmt.Errorf("invalid commission: %w", err)
		}
		st.Trades = append(st.Trades, t)

	case sectionDividends, sectionInterest, sectionWithholding:
		on, err := date.ParseLayout(date.DateFormat, cols.get(line, "Date"))
		if err != nil {
			return nil
		}
		c := Cash{Date: on, Currency: cols.get(line, "Currency"), Description: cols.get(line, "Description")}
		if c.Amount, err = number(cols.get(line, "Amount")); err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		switch section {
		case sectionDividends:
			st.Dividends = append(st.Dividends, c)
		case sectionInterest:
			st.Interests = append(st.Interests, c)
		default:
			st.Taxes = append(st.Taxes, c)
		}
	}
	return nil
}

// Reporter reads activity statement CSV exports.
type Reporter struct {
	Paths []string  `validate:"min=1,dive,required,ext=.csv"`
	Rates pit.Rates `validate:"required"`
}

func (r *Reporter) Name() string    { return "ibkr" }
func (r *Reporter) Details() string { return strings.Join(r.Paths, ", ") }

func (r *Reporter) Generate(ctx context.Context, logs *pit.Logs) (pit.TaxReport, error) {
	if err := pit.Validate(r); err != nil {
		return pit.TaxReport{}, err
	}
	var st Statement
	for _, path := range r.Paths {
		if err := ctx.Err(); err != nil {
			return pit.TaxReport{}, err
		}
		s, err := parseFile(path)
		if err != nil {
			return pit.TaxReport{}, err
		}
		st.Append(s)
	}
	return st.Report(r.Rates)
}

func parseFile(path string) (Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return Statement{}, err
	}
	defer f.Close()
	st, err := ParseActivity(f)
	if err != nil {
		return Statement{}, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}
