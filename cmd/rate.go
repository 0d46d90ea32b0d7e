package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	"github.com/google/subcommands"
)

type rateCmd struct {
	currency string
	on       string
}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "print the exchange rate used on a day" }
func (*rateCmd) Usage() string {
	return `pitc rate [-c <currency>] [-d <date>]

  Prints the NBP rate applied to amounts of that day: the fixing of the
  previous trading day.
`
}

func (c *rateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "USD", "currency code")
	f.StringVar(&c.on, "d", date.Today().String(), "date of the transaction (YYYY-MM-DD)")
}

func (c *rateCmd) run(w io.Writer, rates pit.Rates) error {
	on, err := date.Parse(c.on)
	if err != nil {
		return err
	}
	currency := strings.ToUpper(c.currency)
	rate, err := rates.Rate(currency, on)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "1 %s = %v PLN on %v\n", currency, rate, on)
	return nil
}

func (c *rateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rates, err := openRates()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening the exchange rate cache: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := c.run(os.Stdout, rates); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
