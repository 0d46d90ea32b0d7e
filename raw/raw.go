// Package raw reads yearly figures already computed elsewhere.
//
// A raw file is a CSV with a 'year' column, an optional 'description' column,
// and any of the TaxRecord figures as snake_case columns:
//
//	year,description,trade_revenue,trade_cost
//	2024,broker A,1000,800
//
// Rows of the same year are summed up.
package raw

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/pit"
	"github.com/shopspring/decimal"
)

// Parse reads raw figures into records.
func Parse(r io.Reader, recs pit.Records) error {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("missing header: %w", err)
	}
	year := -1
	for i, name := range header {
		header[i] = strings.TrimSpace(name)
		switch {
		case header[i] == "year":
			year = i
		case header[i] == "description":
		case !slices.Contains(pit.FieldNames(), header[i]):
			return fmt.Errorf("unknown column %q", header[i])
		}
	}
	if year < 0 {
		return fmt.Errorf("missing column \"year\"")
	}

	for {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		row, _ := reader.FieldPos(0)
		y, err := strconv.Atoi(strings.TrimSpace(line[year]))
		if err != nil {
			return fmt.Errorf("line %d: invalid year %q", row, line[year])
		}
		rec := recs.At(y)
		for i, name := range header {
			if i == year || name == "description" {
				continue
			}
			cell := strings.TrimSpace(line[i])
			v := decimal.Zero
			if cell != "" {
				if v, err = decimal.NewFromString(cell); err != nil {
					return fmt.Errorf("line %d: invalid %s %q", row, name, cell)
				}
			}
			rec.AddField(name, v)
		}
	}
}

// Reporter reads raw CSV files.
type Reporter struct {
	Paths []string `validate:"min=1,dive,required,ext=.csv"`
}

func (r *Reporter) Name() string    { return "raw" }
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
		if err := parseFile(path, recs); err != nil {
			return pit.TaxReport{}, err
		}
	}
	return recs.Report()
}

func parseFile(path string, recs pit.Records) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := Parse(f, recs); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
