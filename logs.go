package pit

import (
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/pit/date"
)

// Change is a field value rewritten by a source while preparing its transactions.
type Change struct {
	Field  string
	Before string
	After  string
}

// LogEntry groups the changes made to one transaction.
type LogEntry struct {
	Source  string
	Date    date.Date
	Action  string // action and detail of the transaction, e.g. "Sale RS"
	Changes []Change
}

func (e LogEntry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] [%s]", e.Source, e.Date.Format(date.USFormat), e.Action)
	for _, c := range e.Changes {
		fmt.Fprintf(&b, "\n• %s: %s -> %s", c.Field, c.Before, c.After)
	}
	return b.String()
}

// Logs collects the audit trail of a report generation.
//
// A nil *Logs discards everything.
type Logs struct {
	entries []LogEntry
}

// Add appends an entry, entries without changes are ignored.
func (l *Logs) Add(e LogEntry) {
	if l == nil || len(e.Changes) == 0 {
		return
	}
	l.entries = append(l.entries, e)
}

// Len returns the number of entries.
func (l *Logs) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Entries returns the entries sorted by date, in insertion order for a given date.
func (l *Logs) Entries() []LogEntry {
	if l == nil {
		return nil
	}
	entries := slices.Clone(l.entries)
	slices.SortStableFunc(entries, func(a, b LogEntry) int { return a.Date.Compare(b.Date) })
	return entries
}

func (l *Logs) String() string {
	var lines []string
	for _, e := range l.Entries() {
		lines = append(lines, e.String())
	}
	return strings.Join(lines, "\n")
}
