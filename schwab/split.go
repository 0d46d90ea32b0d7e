package schwab

import (
	"cmp"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
)

// Split detection is a heuristic: it looks for per share values that jump by
// a near integer factor in an export that should be consistent.

// Split describes a stock split.
type Split struct {
	Date    date.Date // first day on the new basis
	Factor  int       // new shares per old share, or old per new when Reverse
	Reverse bool
}

// SaleWindow tunes the detection of a split in the series of sale prices.
type SaleWindow struct {
	Window  int     // observations on each side of the candidate split
	Ratio   float64 // minimum ratio between the medians of each side
	Sustain float64 // minimum share of later observations on the new basis
}

// DefaultSaleWindow rejects blips shorter than three sales.
var DefaultSaleWindow = SaleWindow{Window: 3, Ratio: 1.6, Sustain: 0.8}

const (
	minSplitRatio   = 1.8
	factorTolerance = 0.35
)

// reference pairs the origin date of a lot with its per share value.
type reference struct{ dateKey, valueKey string }

var references = []reference{
	{"VestDate", "VestFairMarketValue"},
	{"PurchaseDate", "PurchasePrice"},
	{"SubscriptionDate", "SubscriptionFairMarketValue"},
}

// unitKeys are per share values, in order of preference.
var unitKeys = []string{"VestFairMarketValue", "PurchasePrice", "SubscriptionFairMarketValue", "FairMarketValuePrice", "PurchaseFairMarketValue"}

type observation struct {
	on    date.Date
	value float64
}

// unit parses a positive per share value.
func unit(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, _, err := pit.ParseAmount(s)
	if err != nil || !v.IsPositive() {
		return 0, false
	}
	return v.InexactFloat64(), true
}

// isClose reports whether a is within 3% (at least 0.01) of b.
func isClose(a, b float64) bool {
	return math.Abs(a-b) <= max(0.03*math.Abs(b), 0.01)
}

// factorFromRatio returns the integer split factor a ratio of values suggests.
func factorFromRatio(ratio float64) (int, bool) {
	if ratio < minSplitRatio {
		return 0, false
	}
	factor := math.Round(ratio)
	if math.Abs(ratio-factor) > factorTolerance {
		return 0, false
	}
	return int(factor), true
}

// preSplit returns the value v had before the split.
func preSplit(v float64, factor int, reverse bool) float64 {
	if reverse {
		return v / float64(factor)
	}
	return v * float64(factor)
}

// closerToScaledValue reports whether value is closer to the pre split
// version of ref than to ref, on a log scale.
func closerToScaledValue(value, ref float64, factor int, reverse bool) bool {
	scaled := preSplit(ref, factor, reverse)
	return math.Abs(math.Log(value/scaled)) < math.Abs(math.Log(value/ref))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func values(obs []observation) []float64 {
	v := make([]float64, len(obs))
	for i, o := range obs {
		v[i] = o.value
	}
	return v
}

// groupKey identifies the lots sharing one origin (same vest, purchase...).
type groupKey struct {
	field  string
	origin string
}

// referenceGroups collects the per share values of lots by origin. Lots of the
// same origin must have the same value, unless a split happened in between.
func referenceGroups(txs []Transaction) map[groupKey][]observation {
	groups := make(map[groupKey][]observation)
	for _, tx := range txs {
		for _, d := range tx.Details {
			for _, ref := range references {
				origin := d[ref.dateKey]
				if origin == "" {
					continue
				}
				v, ok := unit(d[ref.valueKey])
				if !ok {
					continue
				}
				k := groupKey{ref.valueKey, origin}
				groups[k] = append(groups[k], observation{tx.Date, v})
			}
		}
	}
	return groups
}

type candidate struct {
	Split
	weight int
}

// candidateFromGroup looks for a split in chronological observations.
//
// The values on each side of the geometric mean of the extremes are the two
// bases. The split is the first observation on the other side than the
// first one.
func candidateFromGroup(obs []observation) (candidate, bool) {
	if len(obs) < 2 {
		return candidate{}, false
	}
	obs = slices.Clone(obs)
	slices.SortStableFunc(obs, func(a, b observation) int { return a.on.Compare(b.on) })
	lo, hi := slices.Min(values(obs)), slices.Max(values(obs))
	if lo <= 0 {
		return candidate{}, false
	}
	factor, ok := factorFromRatio(hi / lo)
	if !ok {
		return candidate{}, false
	}
	threshold := math.Sqrt(lo * hi)
	high := obs[0].value > threshold
	boundary := slices.IndexFunc(obs, func(o observation) bool { return (o.value > threshold) != high })
	if boundary < 0 {
		return candidate{}, false
	}
	early, late := values(obs[:boundary]), values(obs[boundary:])
	return candidate{
		Split:  Split{Date: obs[boundary].on, Factor: factor, Reverse: median(early) < median(late)},
		weight: len(obs),
	}, true
}

// vote elects the split most observations agree on, dated by the median
// date of the agreeing candidates. Ties go to the smallest factor, then to a
// forward split.
func vote(cands []candidate) (Split, bool) {
	if len(cands) == 0 {
		return Split{}, false
	}
	type ballot struct {
		factor  int
		reverse bool
	}
	weights := make(map[ballot]int)
	for _, c := range cands {
		weights[ballot{c.Factor, c.Reverse}] += c.weight
	}
	var best ballot
	bestWeight := -1
	for _, c := range cands {
		b := ballot{c.Factor, c.Reverse}
		if w := weights[b]; w > bestWeight || (w == bestWeight && (b.factor < best.factor ||
			b.factor == best.factor && best.reverse && !b.reverse)) {
			best, bestWeight = b, w
		}
	}
	var dates []date.Date
	for _, c := range cands {
		if c.Factor == best.factor && c.Reverse == best.reverse {
			dates = append(dates, c.Date)
		}
	}
	slices.SortFunc(dates, date.Date.Compare)
	return Split{Date: dates[(len(dates)-1)/2], Factor: best.factor, Reverse: best.reverse}, true
}

// salePrices returns the positive sale prices, oldest first.
func salePrices(txs []Transaction) []observation {
	var obs []observation
	for _, tx := range txs {
		if tx.Action != actionSale {
			continue
		}
		for _, d := range tx.Details {
			if v, ok := unit(d["SalePrice"]); ok {
				obs = append(obs, observation{tx.Date, v})
			}
		}
	}
	slices.SortStableFunc(obs, func(a, b observation) int { return a.on.Compare(b.on) })
	return obs
}

// postSide reports whether v is on the post split side of threshold.
func postSide(v, threshold float64, reverse bool) bool {
	if reverse {
		return v > threshold
	}
	return v < threshold
}

// splitDateFromSales looks for a sustained shift in sale prices, in the split
// direction.
func splitDateFromSales(txs []Transaction, reverse bool, w SaleWindow) (date.Date, bool) {
	series := salePrices(txs)
	n := len(series)
	if w.Window <= 0 || n < 2*w.Window {
		return date.Date{}, false
	}
	for i := w.Window; i <= n-w.Window; i++ {
		pre := median(values(series[i-w.Window : i]))
		post := median(values(series[i : i+w.Window]))
		if pre <= 0 || post <= 0 {
			continue
		}
		ratio := pre / post
		if reverse {
			ratio = post / pre
		}
		if ratio < w.Ratio {
			continue
		}
		threshold := math.Sqrt(pre * post)
		sustained := 0
		for _, o := range series[i:] {
			if postSide(o.value, threshold, reverse) {
				sustained++
			}
		}
		if float64(sustained)/float64(n-i) < w.Sustain {
			continue
		}
		return transitionDate(series[i:i+w.Window], pre, post, reverse), true
	}
	return date.Date{}, false
}

// transitionDate returns the first observation of the window on the post
// split side, or the window start.
func transitionDate(window []observation, pre, post float64, reverse bool) date.Date {
	threshold := math.Sqrt(pre * post)
	for _, o := range window {
		if postSide(o.value, threshold, reverse) {
			return o.on
		}
	}
	return window[0].on
}

// unitValues returns the first per share value of each sale, oldest first.
func unitValues(txs []Transaction) []observation {
	var obs []observation
	for _, tx := range txs {
		if tx.Action != actionSale {
			continue
		}
	details:
		for _, d := range tx.Details {
			for _, k := range unitKeys {
				if v, ok := unit(d[k]); ok {
					obs = append(obs, observation{tx.Date, v})
					break details
				}
			}
		}
	}
	return obs
}

// DetectSplit looks for a split in the transactions.
//
// Lots sharing an origin vote for a split. Without any lot origin, the per
// share values of the sales are used instead. The date is then refined
// with the sale prices when they show a sustained shift.
func DetectSplit(txs []Transaction, w SaleWindow) (Split, bool) {
	groups := referenceGroups(txs)
	var split Split
	var ok bool
	if len(groups) > 0 {
		keys := slices.SortedFunc(maps.Keys(groups), func(a, b groupKey) int {
			return cmp.Or(strings.Compare(a.field, b.field), strings.Compare(a.origin, b.origin))
		})
		var cands []candidate
		for _, k := range keys {
			if c, ok := candidateFromGroup(groups[k]); ok {
				cands = append(cands, c)
			}
		}
		split, ok = vote(cands)
	} else {
		var c candidate
		c, ok = candidateFromGroup(unitValues(txs))
		split = c.Split
	}
	if !ok {
		return Split{}, false
	}
	if on, found := splitDateFromSales(txs, split.Reverse, w); found {
		split.Date = on
	}
	return split, true
}
