package nbp

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/pit/date"
	"golang.org/x/text/encoding/charmap"
)

// Public NBP endpoints.
const (
	ArchiveURL = "https://static.nbp.pl/dane/kursy/Archiwum"
	APIURL     = "https://api.nbp.pl/api/exchangerates"
)

// chunkDays is the longest range the API serves in one request, minus one.
const chunkDays = 92

// StatusError is returned for a non 200 HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot http GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Client downloads table A fixings from the NBP.
type Client struct {
	HTTP       *http.Client
	ArchiveURL string
	APIURL     string
}

// NewClient returns a client of the public NBP endpoints.
func NewClient() *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: 30 * time.Second},
		ArchiveURL: ArchiveURL,
		APIURL:     APIURL,
	}
}

// get performs an HTTP GET request and returns the body.
func (c *Client) get(addr string) ([]byte, error) {
	resp, err := c.HTTP.Get(addr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	log.Printf("%v %v/%v %v", resp.Request.Method, resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: addr, StatusCode: resp.StatusCode}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FetchYear downloads the yearly archive of table A.
func (c *Client) FetchYear(year int) (Table, error) {
	body, err := c.get(fmt.Sprintf("%s/archiwum_tab_a_%d.csv", c.ArchiveURL, year))
	if err != nil {
		return nil, err
	}
	t, err := parseArchive(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cannot parse %d archive: %w", year, err)
	}
	return t, nil
}

// currencyColumn matches archive headers like "1USD" or "100JPY".
var currencyColumn = regexp.MustCompile(`^(\d+)([A-Z]{3})$`)

// parseArchive reads the ISO-8859-2, semicolon separated yearly archive.
//
// The header is followed by a row of currency names, then one row per
// day. Rates use a decimal comma. Rows that do not start with a date
// (footers) are ignored.
func parseArchive(r io.Reader) (Table, error) {
	reader := csv.NewReader(charmap.ISO8859_2.NewDecoder().Reader(r))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read header: %w", err)
	}
	type column struct {
		index int
		code  string
		units float64
	}
	dateIndex := -1
	var columns []column
	for i, name := range header {
		name = strings.TrimSpace(name)
		if strings.EqualFold(name, "data") {
			dateIndex = i
			continue
		}
		m := currencyColumn.FindStringSubmatch(name)
		if m == nil || !slices.Contains(Currencies, m[2]) {
			continue
		}
		units, _ := strconv.ParseFloat(m[1], 64)
		columns = append(columns, column{i, m[2], units})
	}
	if dateIndex < 0 {
		return nil, errors.New("missing the \"data\" column")
	}
	// names of the currencies
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("cannot read currency names: %w", err)
	}

	var t Table
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if dateIndex >= len(record) {
			continue
		}
		on, err := date.ParseLayout(date.CompactFormat, record[dateIndex])
		if err != nil {
			continue
		}
		row := Row{On: on, Rates: make(map[string]float64)}
		for _, col := range columns {
			if col.index >= len(record) || !strings.Contains(record[col.index], ",") {
				continue
			}
			v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(record[col.index]), ",", ".", 1), 64)
			if err != nil {
				continue
			}
			row.Rates[col.code] = v / col.units
		}
		if len(row.Rates) > 0 {
			t = append(t, row)
		}
	}
	t.sort()
	return t, nil
}

// FetchRange downloads table A between two dates included.
//
// The range is split in chunks the API accepts. The API answers 404 for a
// range without any fixing: such chunks are skipped.
func (c *Client) FetchRange(from, to date.Date) (Table, error) {
	type jtable struct {
		EffectiveDate date.Date `json:"effectiveDate"`
		Rates         []struct {
			Code string  `json:"code"`
			Mid  float64 `json:"mid"`
		} `json:"rates"`
	}

	var t Table
	for chunk := range (date.Range{From: from, To: to}).Chunks(chunkDays) {
		addr := fmt.Sprintf("%s/tables/A/%s/%s/?format=json", c.APIURL, chunk.From, chunk.To)
		body, err := c.get(addr)
		var status *StatusError
		if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		var tables []jtable
		if err := json.Unmarshal(body, &tables); err != nil {
			return nil, fmt.Errorf("cannot parse %s: %w", addr, err)
		}
		for _, jt := range tables {
			row := Row{On: jt.EffectiveDate, Rates: make(map[string]float64)}
			for _, r := range jt.Rates {
				if slices.Contains(Currencies, r.Code) {
					row.Rates[r.Code] = r.Mid
				}
			}
			if len(row.Rates) > 0 {
				t = append(t, row)
			}
		}
	}
	return Table{}.Merge(t), nil
}
