package pit

import (
	"maps"
	"slices"
	"strconv"
)

// TaxReport holds one TaxRecord per year.
//
// Its zero value is an empty report ready to use.
type TaxReport struct {
	records map[int]TaxRecord
}

// Set registers the record of a year. A year can be set only once, reports
// are combined with Add.
func (r *TaxReport) Set(year int, record TaxRecord) error {
	if _, exists := r.records[year]; exists {
		return &DuplicateYearError{Year: year}
	}
	if r.records == nil {
		r.records = make(map[int]TaxRecord)
	}
	r.records[year] = record
	return nil
}

// Get returns the record of a year, or an empty record.
func (r TaxReport) Get(year int) TaxRecord { return r.records[year] }

// Has reports whether the year has been set.
func (r TaxReport) Has(year int) bool {
	_, ok := r.records[year]
	return ok
}

// Len returns the number of years in the report.
func (r TaxReport) Len() int { return len(r.records) }

// Years returns the years of the report in increasing order.
func (r TaxReport) Years() []int { return slices.Sorted(maps.Keys(r.records)) }

// Add returns the union of both reports, records of common years are summed.
func (r TaxReport) Add(o TaxReport) TaxReport {
	sum := TaxReport{records: make(map[int]TaxRecord, len(r.records)+len(o.records))}
	for year, rec := range r.records {
		sum.records[year] = rec
	}
	for year, rec := range o.records {
		sum.records[year] = sum.records[year].Add(rec)
	}
	return sum
}

// Equal reports whether both reports have the same years with equal records.
func (r TaxReport) Equal(o TaxReport) bool {
	if len(r.records) != len(o.records) {
		return false
	}
	for year, rec := range r.records {
		orec, ok := o.records[year]
		if !ok || !rec.Equal(orec) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the records keyed by year, in increasing order.
func (r TaxReport) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	for _, year := range r.Years() {
		w.Append(strconv.Itoa(year), r.records[year])
	}
	return w.MarshalJSON()
}

// Records accumulates per year figures before they are frozen into a TaxReport.
type Records map[int]*TaxRecord

// At returns the record of a year, creating it when needed.
func (s Records) At(year int) *TaxRecord {
	rec, ok := s[year]
	if !ok {
		rec = new(TaxRecord)
		s[year] = rec
	}
	return rec
}

// Report freezes the accumulated figures.
func (s Records) Report() (TaxReport, error) {
	var r TaxReport
	for _, year := range slices.Sorted(maps.Keys(s)) {
		if err := r.Set(year, *s[year]); err != nil {
			return TaxReport{}, err
		}
	}
	return r, nil
}
