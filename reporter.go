package pit

import (
	"context"
	"fmt"
)

// Reporter turns one source of transactions into a TaxReport.
type Reporter interface {
	// Name identifies the kind of source, e.g. "schwab".
	Name() string
	// Details describes this particular source, e.g. its files.
	Details() string
	// Generate reads the source. Changes made to the source transactions are
	// recorded in logs, which may be nil.
	Generate(ctx context.Context, logs *Logs) (TaxReport, error)
}

// Generate sums the reports of all reporters. The first failure aborts.
func Generate(ctx context.Context, logs *Logs, reporters ...Reporter) (TaxReport, error) {
	var total TaxReport
	for _, r := range reporters {
		if err := ctx.Err(); err != nil {
			return TaxReport{}, err
		}
		report, err := r.Generate(ctx, logs)
		if err != nil {
			return TaxReport{}, fmt.Errorf("%s %s: %w", r.Name(), r.Details(), err)
		}
		total = total.Add(report)
	}
	return total, nil
}
