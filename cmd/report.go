package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/coinbase"
	"github.com/etnz/pit/ibkr"
	"github.com/etnz/pit/manual"
	"github.com/etnz/pit/raw"
	"github.com/etnz/pit/renderer"
	"github.com/etnz/pit/revolut"
	"github.com/etnz/pit/schwab"
	"github.com/google/subcommands"
)

// list is a repeatable flag.
type list []string

func (l *list) String() string { return strings.Join(*l, ",") }

func (l *list) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type reportCmd struct {
	schwab     list
	ibkr       list
	coinbase   list
	revolut    list
	raw        list
	trade      list
	crypto     list
	employment list

	flex      bool
	flexQuery string
	flexToken string

	json bool
	logs bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "compute the yearly tax figures" }
func (*reportCmd) Usage() string {
	return `pitc report [-schwab <file.json>] [-ibkr <file.csv>] [-flex] [-coinbase <file.csv>] [-revolut <file.csv>] [-raw <file.csv>] [-trade|-crypto|-employment <entry>] [-json] [-logs]

  Reads every source, converts foreign amounts to PLN at the NBP rate of the
  previous trading day, and prints the figures to declare per year.

  File flags can be repeated. Manual entries are 'year:v1:v2[:v3[:v4]]':
    -trade       year:revenue:cost[:loss from previous years]
    -crypto      year:revenue:cost[:cost excess from previous years]
    -employment  year:revenue:cost[:social security contributions[:donations]]
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.schwab, "schwab", "Schwab JSON export")
	f.Var(&c.ibkr, "ibkr", "Interactive Brokers activity statement (CSV)")
	f.Var(&c.coinbase, "coinbase", "Coinbase transaction history (CSV)")
	f.Var(&c.revolut, "revolut", "Revolut savings statement (CSV)")
	f.Var(&c.raw, "raw", "CSV of yearly figures")
	f.Var(&c.trade, "trade", "manual trade entry")
	f.Var(&c.crypto, "crypto", "manual crypto entry")
	f.Var(&c.employment, "employment", "manual employment entry")
	f.BoolVar(&c.flex, "flex", false, "download the statements from the Interactive Brokers Flex Web Service")
	f.StringVar(&c.flexQuery, "flex-query", "", "Flex query ID. Defaults to $"+EnvFlexQuery+".")
	f.StringVar(&c.flexToken, "flex-token", "", "Flex token. Defaults to $"+EnvFlexToken+".")
	f.BoolVar(&c.json, "json", false, "print the report as JSON")
	f.BoolVar(&c.logs, "logs", false, "print the changes made to the source transactions")
}

// reporters returns one reporter per source kind, and one per manual entry.
func (c *reportCmd) reporters(rates pit.Rates) ([]pit.Reporter, error) {
	var reporters []pit.Reporter
	if len(c.schwab) > 0 {
		reporters = append(reporters, &schwab.Reporter{Paths: c.schwab, Rates: rates})
	}
	if len(c.ibkr) > 0 {
		reporters = append(reporters, &ibkr.Reporter{Paths: c.ibkr, Rates: rates})
	}
	if c.flex {
		query, token := c.flexQuery, c.flexToken
		if query == "" {
			query = os.Getenv(EnvFlexQuery)
		}
		if token == "" {
			token = os.Getenv(EnvFlexToken)
		}
		reporters = append(reporters, &ibkr.FlexReporter{QueryID: query, Token: token, Rates: rates})
	}
	if len(c.coinbase) > 0 {
		reporters = append(reporters, &coinbase.Reporter{Paths: c.coinbase, Rates: rates})
	}
	if len(c.revolut) > 0 {
		reporters = append(reporters, &revolut.Reporter{Paths: c.revolut})
	}
	if len(c.raw) > 0 {
		reporters = append(reporters, &raw.Reporter{Paths: c.raw})
	}
	for _, entry := range c.trade {
		r, err := manual.ParseTrade(entry)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, r)
	}
	for _, entry := range c.crypto {
		r, err := manual.ParseCrypto(entry)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, r)
	}
	for _, entry := range c.employment {
		r, err := manual.ParseEmployment(entry)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, r)
	}
	return reporters, nil
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rates, err := openRates()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening the exchange rate cache: %v\n", err)
		return subcommands.ExitFailure
	}
	reporters, err := c.reporters(rates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing manual entry: %v\n", err)
		return subcommands.ExitUsageError
	}
	if len(reporters) == 0 {
		fmt.Fprintln(os.Stderr, "no source given, see 'pitc help report'")
		return subcommands.ExitUsageError
	}

	logs := new(pit.Logs)
	report, err := pit.Generate(ctx, logs, reporters...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating the report: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.json {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding the report: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println(string(data))
	} else {
		printMarkdown(renderer.TaxReport(report))
	}
	if c.logs {
		printMarkdown(renderer.Logs(logs))
	}
	return subcommands.ExitSuccess
}
