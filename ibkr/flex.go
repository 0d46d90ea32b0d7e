package ibkr

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Flex Web Service endpoints. GetStatement is usually given by SendRequest.
const (
	SendRequestURL  = "https://ndcdyn.interactivebrokers.com/AccountManagement/FlexWebService/SendRequest"
	GetStatementURL = "https://gdcdyn.interactivebrokers.com/AccountManagement/FlexWebService/GetStatement"
)

// Flex error codes.
const (
	codeNoData         = "1003" // statement is not available
	codeTooManyRequest = "1018"
	codeInProgress     = "1019" // statement generation in progress
)

// FlexError is a failure reported by the Flex Web Service.
type FlexError struct {
	Stage   string // "SendRequest" or "GetStatement"
	Status  string
	Code    string
	Message string
}

func (e *FlexError) Error() string {
	msg := fmt.Sprintf("IBKR %s failed: %s", e.Stage, e.Status)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// FlexClient downloads Flex query statements.
//
// A statement is produced in two steps: SendRequest starts its generation
// and returns a reference, GetStatement polls it until it is ready.
type FlexClient struct {
	HTTP           *http.Client
	SendRequestURL string
	UserAgent      string

	SendAttempts int
	SendEvery    time.Duration
	PollAttempts int
	PollEvery    time.Duration
}

// NewFlexClient returns a client of the public Flex Web Service.
func NewFlexClient() *FlexClient {
	return &FlexClient{
		HTTP:           &http.Client{Timeout: 30 * time.Second},
		SendRequestURL: SendRequestURL,
		UserAgent:      "pitc/1.0",
		SendAttempts:   5,
		SendEvery:      5 * time.Second,
		PollAttempts:   20,
		PollEvery:      3 * time.Second,
	}
}

func (c *FlexClient) get(ctx context.Context, addr string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	log.Printf("%v %v/%v %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v/%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flexResponse is the status document of both steps.
type flexResponse struct {
	XMLName       xml.Name
	Status        string `xml:"Status"`
	ErrorCode     string `xml:"ErrorCode"`
	ErrorMessage  string `xml:"ErrorMessage"`
	ReferenceCode string `xml:"ReferenceCode"`
	URL           string `xml:"Url"`
}

// errNoData is returned by SendRequest when the period has no statement.
var errNoData = errors.New("no statement")

// SendRequest starts the generation of a statement. It returns the
// reference of the statement and the address to get it from.
func (c *FlexClient) SendRequest(ctx context.Context, token, query string, from, to date.Date) (ref, addr string, err error) {
	params := url.Values{
		"t":  {token},
		"q":  {query},
		"v":  {"3"},
		"fd": {from.Format(date.CompactFormat)},
		"td": {to.Format(date.CompactFormat)},
	}
	pace := rate.NewLimiter(rate.Every(c.SendEvery), 1)
	for range c.SendAttempts {
		if err := pace.Wait(ctx); err != nil {
			return "", "", err
		}
		body, err := c.get(ctx, c.SendRequestURL, params)
		if err != nil {
			return "", "", err
		}
		var resp flexResponse
		if err := xml.Unmarshal(body, &resp); err != nil {
			return "", "", fmt.Errorf("invalid SendRequest response: %w", err)
		}
		switch {
		case (resp.Status == "Success" || resp.Status == "Warn") && resp.ReferenceCode != "":
			addr = resp.URL
			if addr == "" {
				addr = GetStatementURL
			}
			return resp.ReferenceCode, addr, nil
		case resp.ErrorCode == codeNoData:
			return "", "", errNoData
		case resp.ErrorCode == codeTooManyRequest:
			log.Printf("IBKR SendRequest throttled, retrying")
		default:
			return "", "", &FlexError{Stage: "SendRequest", Status: resp.Status, Code: resp.ErrorCode, Message: resp.ErrorMessage}
		}
	}
	return "", "", fmt.Errorf("IBKR SendRequest rate-limited")
}

// GetStatement polls a statement until it is generated, and returns it.
func (c *FlexClient) GetStatement(ctx context.Context, token, ref, addr string) ([]byte, error) {
	params := url.Values{"t": {token}, "q": {ref}, "v": {"3"}}
	pace := rate.NewLimiter(rate.Every(c.PollEvery), 1)
	for range c.PollAttempts {
		if err := pace.Wait(ctx); err != nil {
			return nil, err
		}
		body, err := c.get(ctx, addr, params)
		if err != nil {
			return nil, err
		}
		var resp flexResponse
		if err := xml.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("invalid GetStatement response: %w", err)
		}
		if resp.XMLName.Local != "FlexStatementResponse" {
			return body, nil
		}
		switch {
		case resp.Status == "Success":
			return body, nil
		case resp.Status == "Warn" || resp.ErrorCode == codeTooManyRequest || resp.ErrorCode == codeInProgress:
			log.Printf("IBKR statement %s not ready, retrying", ref)
		default:
			return nil, &FlexError{Stage: "GetStatement", Status: resp.Status, Code: resp.ErrorCode, Message: resp.ErrorMessage}
		}
	}
	return nil, fmt.Errorf("IBKR GetStatement did not complete in time")
}

// Statement downloads the statement of a period.
func (c *FlexClient) Statement(ctx context.Context, token, query string, from, to date.Date) (Statement, error) {
	ref, addr, err := c.SendRequest(ctx, token, query, from, to)
	if errors.Is(err, errNoData) {
		return Statement{}, nil
	}
	if err != nil {
		return Statement{}, err
	}
	body, err := c.GetStatement(ctx, token, ref, addr)
	if err != nil {
		return Statement{}, err
	}
	return ParseFlex(body)
}

type flexTrade struct {
	DateTime     string `xml:"dateTime,attr"`
	Symbol       string `xml:"symbol,attr"`
	Currency     string `xml:"currency,attr"`
	Quantity     string `xml:"quantity,attr"`
	Proceeds     string `xml:"proceeds,attr"`
	IBCommission string `xml:"ibCommission,attr"`
}

type flexCash struct {
	DateTime    string `xml:"dateTime,attr"`
	Type        string `xml:"type,attr"`
	Description string `xml:"description,attr"`
	Currency    string `xml:"currency,attr"`
	Amount      string `xml:"amount,attr"`
}

type flexQueryResponse struct {
	Statements []struct {
		Trades []flexTrade `xml:"Trades>Trade"`
		Cash   []flexCash  `xml:"CashTransactions>CashTransaction"`
	} `xml:"FlexStatements>FlexStatement"`
}

// ParseFlex reads a Flex query statement. Trades and cash transactions that
// cannot be read are ignored, as are cash transactions that are neither
// dividends, interest nor withholding taxes.
func ParseFlex(body []byte) (Statement, error) {
	var resp flexQueryResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return Statement{}, fmt.Errorf("invalid statement: %w", err)
	}
	var st Statement
	for _, s := range resp.Statements {
		for _, ft := range s.Trades {
			if t, ok := ft.trade(); ok {
				st.Trades = append(st.Trades, t)
			}
		}
		for _, fc := range s.Cash {
			c, ok := fc.cash()
			if !ok {
				continue
			}
			switch kind := strings.ToLower(fc.Type); {
			case strings.Contains(kind, "withholding"):
				st.Taxes = append(st.Taxes, c)
			case strings.Contains(kind, "dividend"):
				st.Dividends = append(st.Dividends, c)
			case strings.Contains(kind, "interest"):
				st.Interests = append(st.Interests, c)
			}
		}
	}
	return st, nil
}

func (ft flexTrade) trade() (Trade, bool) {
	on, err := date.ParseLayout(date.CompactFormat, ft.DateTime)
	if err != nil {
		return Trade{}, false
	}
	q, err1 := decimal.NewFromString(ft.Quantity)
	p, err2 := decimal.NewFromString(ft.Proceeds)
	if err1 != nil || err2 != nil || q.IsZero() {
		return Trade{}, false
	}
	commission, err := decimal.NewFromString(ft.IBCommission)
	if err != nil {
		commission = decimal.Zero
	}
	return Trade{Date: on, Symbol: ft.Symbol, Currency: ft.Currency, Quantity: q, Proceeds: p, Commission: commission}, true
}

func (fc flexCash) cash() (Cash, bool) {
	on, err := date.ParseLayout(date.CompactFormat, fc.DateTime)
	if err != nil {
		return Cash{}, false
	}
	amount, err := decimal.NewFromString(fc.Amount)
	if err != nil {
		return Cash{}, false
	}
	return Cash{Date: on, Currency: fc.Currency, Description: fc.Description, Amount: amount.Round(2)}, true
}

// FlexReporter downloads statements of a Flex query, year by year.
type FlexReporter struct {
	QueryID string    `validate:"required,numeric"`
	Token   string    `validate:"required,alphanum"`
	Rates   pit.Rates `validate:"required"`
	// Client defaults to NewFlexClient().
	Client *FlexClient `validate:"-"`
	// MaxYears bounds the number of years requested, 25 when zero.
	MaxYears int `validate:"gte=0"`
}

func (r *FlexReporter) Name() string    { return "ibkr-flex" }
func (r *FlexReporter) Details() string { return "query " + r.QueryID }

// Generate walks back from the current year and stops at the first empty
// year that follows a year with data.
func (r *FlexReporter) Generate(ctx context.Context, logs *pit.Logs) (pit.TaxReport, error) {
	if err := pit.Validate(r); err != nil {
		return pit.TaxReport{}, err
	}
	client := r.Client
	if client == nil {
		client = NewFlexClient()
	}
	years := r.MaxYears
	if years == 0 {
		years = 25
	}
	today := date.Today()
	var st Statement
	seen := false
	for year := today.Year(); year > today.Year()-years; year-- {
		var s Statement
		var err error
		if year == today.Year() {
			s, err = r.currentYear(ctx, client, today)
		} else {
			s, err = client.Statement(ctx, r.Token, r.QueryID, date.StartOfYear(year), date.EndOfYear(year))
		}
		if err != nil {
			return pit.TaxReport{}, fmt.Errorf("statement %d: %w", year, err)
		}
		if s.IsEmpty() {
			if seen {
				break
			}
			continue
		}
		seen = true
		st.Append(s)
	}
	return st.Report(r.Rates)
}

// currentYear requests the statement of the year so far. The service often
// has no data up to today yet, so the end date steps back one day at a time
// until a statement comes back.
func (r *FlexReporter) currentYear(ctx context.Context, client *FlexClient, today date.Date) (Statement, error) {
	from := date.StartOfYear(today.Year())
	for to := today; !to.Before(from); to = to.Add(-1) {
		s, err := client.Statement(ctx, r.Token, r.QueryID, from, to)
		if err != nil || !s.IsEmpty() {
			return s, err
		}
	}
	return Statement{}, nil
}
