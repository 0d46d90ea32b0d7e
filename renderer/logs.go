package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
)

// Logs renders the audit trail as a list, one item per changed transaction.
func Logs(logs *pit.Logs) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Changes\n\n")
	if logs.Len() == 0 {
		fmt.Fprint(&b, "No transaction was changed.\n")
		return b.String()
	}
	for _, e := range logs.Entries() {
		fmt.Fprintf(&b, "- **%s** %s %s\n", e.Source, e.Date.Format(date.USFormat), e.Action)
		for _, c := range e.Changes {
			fmt.Fprintf(&b, "  - %s: `%s` -> `%s`\n", c.Field, c.Before, c.After)
		}
	}
	return b.String()
}
