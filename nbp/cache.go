package nbp

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sync"
	"time"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
)

// Fetcher downloads fixings.
type Fetcher interface {
	FetchYear(year int) (Table, error)
	FetchRange(from, to date.Date) (Table, error)
}

// Cache serves exchange rates to PLN from a local Store, filled from a Fetcher.
//
// Past years are downloaded once and never again. The current year is
// completed with the days published since the last download.
type Cache struct {
	Store   Store
	Fetcher Fetcher
	Now     func() time.Time

	mu       sync.Mutex
	rates    map[string]*date.History[float64]
	minYear  int // first year loaded
	asOfYear int // current year when loaded
}

var _ pit.Rates = (*Cache)(nil)

// NewCache returns a cache of the public NBP rates stored in dir.
func NewCache(dir string) *Cache {
	return &Cache{Store: Store{Dir: dir}, Fetcher: NewClient(), Now: time.Now}
}

// Rate returns the rate to PLN of currency applicable on a day. On a trading
// day it is the fixing of the previous trading day. A day without fixing gets
// the rate of the last trading day before it.
func (c *Cache) Rate(currency string, on date.Date) (float64, error) {
	if currency == pit.PLN {
		return 1, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(on.Year()); err != nil {
		return 0, err
	}
	h, ok := c.rates[currency]
	if !ok {
		return 0, fmt.Errorf("%s on %v: %w", currency, on, pit.ErrRateUnavailable)
	}
	rate, ok := h.ValueAsOf(on)
	if !ok {
		return 0, fmt.Errorf("%s on %v: %w", currency, on, pit.ErrRateUnavailable)
	}
	return rate, nil
}

func (c *Cache) today() date.Date {
	if c.Now == nil {
		return date.Today()
	}
	return date.Of(c.Now())
}

// load makes sure rates cover 'year'. Everything is reloaded when nothing is
// loaded, when the year has changed since, or when year is before the
// loaded ones.
func (c *Cache) load(year int) error {
	today := c.today()
	if c.rates != nil && c.asOfYear == today.Year() && year >= c.minYear {
		return nil
	}
	minYear := min(year, today.Year())
	if c.rates != nil {
		minYear = min(minYear, c.minYear)
	}

	var all Table
	for y := minYear; y <= today.Year(); y++ {
		t, err := c.loadYear(y, today)
		if err != nil {
			return fmt.Errorf("cannot load %d exchange rates: %w", y, err)
		}
		all = append(all, t...)
	}
	c.rates = shift(all)
	c.minYear, c.asOfYear = minYear, today.Year()
	return nil
}

// loadYear returns the fixings of a year, downloading what is missing.
func (c *Cache) loadYear(year int, today date.Date) (Table, error) {
	stored, err := c.Store.Load(year)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	missing := err != nil

	if year < today.Year() {
		if !missing {
			return stored, nil
		}
		return c.fetchYear(year)
	}

	if len(stored) == 0 {
		return c.fetchYear(year)
	}
	last, _ := stored.Latest()
	if !last.Before(today) {
		return stored, nil
	}
	from := last.Add(1)
	if start := date.StartOfYear(year); from.Before(start) {
		from = start
	}
	fresh, err := c.Fetcher.FetchRange(from, today)
	if err != nil {
		log.Printf("cannot refresh %d exchange rates, using the cached ones: %v", year, err)
		return stored, nil
	}
	if len(fresh) == 0 {
		return stored, nil
	}
	merged := stored.Merge(fresh)
	if err := c.Store.Save(year, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func (c *Cache) fetchYear(year int) (Table, error) {
	t, err := c.Fetcher.FetchYear(year)
	if err != nil {
		return nil, err
	}
	if err := c.Store.Save(year, t); err != nil {
		return nil, err
	}
	return t, nil
}
