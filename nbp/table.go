package nbp

import (
	"slices"

	"github.com/etnz/pit/date"
)

// Currencies are the currencies kept from the NBP table A.
var Currencies = []string{"USD", "EUR"}

// Row is the table A fixing of one day.
type Row struct {
	On    date.Date
	Rates map[string]float64 // PLN for one unit of currency
}

// Table is a list of fixings sorted by date, with unique dates.
type Table []Row

// Latest returns the date of the last fixing, or false if the table is empty.
func (t Table) Latest() (date.Date, bool) {
	if len(t) == 0 {
		return date.Date{}, false
	}
	return t[len(t)-1].On, true
}

// Merge returns the union of t and newer. Rows of newer win on conflicting dates.
func (t Table) Merge(newer Table) Table {
	merged := make(Table, 0, len(t)+len(newer))
	merged = append(merged, newer...)
	for _, row := range t {
		if !slices.ContainsFunc(newer, func(r Row) bool { return r.On == row.On }) {
			merged = append(merged, row)
		}
	}
	merged.sort()
	return merged
}

func (t Table) sort() {
	slices.SortStableFunc(t, func(a, b Row) int { return a.On.Compare(b.On) })
}

// shift builds the lookup histories. The rate exposed on a day is the
// fixing of the previous row: tax rules use the last rate published before
// the transaction day. The first row has no predecessor and yields nothing.
func shift(t Table) map[string]*date.History[float64] {
	histories := make(map[string]*date.History[float64])
	for i := 1; i < len(t); i++ {
		for cur, rate := range t[i-1].Rates {
			h, ok := histories[cur]
			if !ok {
				h = new(date.History[float64])
				histories[cur] = h
			}
			h.Append(t[i].On, rate)
		}
	}
	return histories
}
