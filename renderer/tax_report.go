// Package renderer writes tax reports and audit logs as markdown.
package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/pit"
)

// TaxReport renders one section per year with the non-zero items of the
// yearly statement. The total tax is always shown.
func TaxReport(report pit.TaxReport) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Tax Report\n\n")
	if report.Len() == 0 {
		fmt.Fprint(&b, "No tax events found.\n")
		return b.String()
	}
	for _, year := range report.Years() {
		fmt.Fprintf(&b, "## %d\n\n", year)
		fmt.Fprintln(&b, "| Item | PIT | Amount (PLN) |")
		fmt.Fprintln(&b, "|:---|:---|---:|")
		for _, item := range report.Get(year).Items() {
			if item.Name != "Total Tax" && item.Value.IsZero() {
				continue
			}
			name, amount := item.Name, item.Value.StringFixed(2)
			if item.Name == "Total Tax" {
				name, amount = "**"+name+"**", "**"+amount+"**"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", name, item.PIT, amount)
		}
		fmt.Fprintln(&b)
	}
	return b.String()
}
