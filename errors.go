package pit

import (
	"errors"
	"fmt"

	"github.com/etnz/pit/date"
)

// ErrRateUnavailable is returned when no exchange rate exists at or before a date.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// UnknownActionError reports an action label a source does not know how to fold.
type UnknownActionError struct {
	Source string
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("%s: unknown action %q", e.Source, e.Action)
}

// DuplicateYearError reports a second write of the same year in a TaxReport.
type DuplicateYearError struct {
	Year int
}

func (e *DuplicateYearError) Error() string {
	return fmt.Sprintf("tax record for year %d already registered", e.Year)
}

// MismatchError reports a transaction whose books are inconsistent.
type MismatchError struct {
	Date date.Date
	What string // "sale amount" or "cost basis"
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s %s mismatch", e.Date.Format(date.USFormat), e.What)
}
