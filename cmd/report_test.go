package cmd

import (
	"bytes"
	"flag"
	"testing"

	"github.com/etnz/pit"
	"github.com/etnz/pit/ibkr"
	"github.com/etnz/pit/manual"
)

func TestReporters(t *testing.T) {
	var c reportCmd
	f := flag.NewFlagSet("report", flag.ContinueOnError)
	c.SetFlags(f)
	args := []string{
		"-schwab", "a.json", "-schwab", "b.json",
		"-revolut", "savings.csv",
		"-trade", "2024:1000:800",
		"-employment", "2024:100:10:5:1",
		"-flex", "-flex-query", "123",
	}
	if err := f.Parse(args); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvFlexToken, "abc")

	reporters, err := c.reporters(pit.FixedRates{"USD": 4})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, r := range reporters {
		names = append(names, r.Name())
	}
	want := []string{"schwab", "ibkr-flex", "revolut", "trade", "employment"}
	if len(names) != len(want) {
		t.Fatalf("reporters() = %q want %q", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("reporters()[%d] = %q want %q", i, names[i], want[i])
		}
	}
	if got := reporters[0].Details(); got != "a.json, b.json" {
		t.Errorf("schwab Details() = %q want %q", got, "a.json, b.json")
	}
	if flex := reporters[1].(*ibkr.FlexReporter); flex.QueryID != "123" || flex.Token != "abc" {
		t.Errorf("flex credentials = %q %q want 123 abc", flex.QueryID, flex.Token)
	}
	if trade := reporters[3].(*manual.Trade); trade.Cost != "800" {
		t.Errorf("trade cost = %q want 800", trade.Cost)
	}
}

func TestReportersInvalidEntry(t *testing.T) {
	c := reportCmd{crypto: list{"2024"}}
	if _, err := c.reporters(pit.FixedRates{}); err == nil {
		t.Errorf("reporters() succeeded want an error")
	}
}

func TestRate(t *testing.T) {
	tests := []struct {
		currency, on string
		want         string
		wantErr      bool
	}{
		{currency: "usd", on: "2024-01-05", want: "1 USD = 3.9432 PLN on 2024-01-05\n"},
		{currency: "PLN", on: "2024-01-05", want: "1 PLN = 1 PLN on 2024-01-05\n"},
		{currency: "CHF", on: "2024-01-05", wantErr: true},
		{currency: "USD", on: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.currency+" "+tt.on, func(t *testing.T) {
			c := rateCmd{currency: tt.currency, on: tt.on}
			var b bytes.Buffer
			err := c.run(&b, pit.FixedRates{"USD": 3.9432})
			if (err != nil) != tt.wantErr {
				t.Fatalf("run() error = %v want error %v", err, tt.wantErr)
			}
			if got := b.String(); got != tt.want {
				t.Errorf("run() printed %q want %q", got, tt.want)
			}
		})
	}
}

func TestBuiltin(t *testing.T) {
	for name, want := range map[string]bool{"report": true, "rate": true, "help": true, "hello": false} {
		if got := Builtin(name); got != want {
			t.Errorf("Builtin(%q) = %v want %v", name, got, want)
		}
	}
}
