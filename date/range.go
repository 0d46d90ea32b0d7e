package date

import "iter"

// Range represents a range of dates.
type Range struct{ From, To Date }

// Year returns the range covering the whole year.
func Year(year int) Range { return Range{From: StartOfYear(year), To: EndOfYear(year)} }

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return (!date.Before(r.From) && !date.After(r.To)) }

// IsEmpty reports whether the range contains no day at all.
func (r Range) IsEmpty() bool { return r.From.After(r.To) }

// Chunks splits the range into consecutive sub ranges. Each chunk ends at most
// 'days' days after it starts, and the next chunk starts the day after.
func (r Range) Chunks(days int) iter.Seq[Range] {
	return func(yield func(Range) bool) {
		for start := r.From; !start.After(r.To); {
			end := start.Add(days)
			if end.After(r.To) {
				end = r.To
			}
			if !yield(Range{From: start, To: end}) {
				return
			}
			start = end.Add(1)
		}
	}
}
