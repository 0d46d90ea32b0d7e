package cmd

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the pitc command line for shell completion.
// Install it with COMP_INSTALL=1 pitc.
func Completion() *complete.Command {
	csv := predict.Files("*.csv")
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"cache-dir": predict.Dirs("*"),
			"v":         predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"report": {
				Flags: map[string]complete.Predictor{
					"schwab":     predict.Files("*.json"),
					"ibkr":       csv,
					"coinbase":   csv,
					"revolut":    csv,
					"raw":        csv,
					"trade":      predict.Something,
					"crypto":     predict.Something,
					"employment": predict.Something,
					"flex":       predict.Nothing,
					"flex-query": predict.Something,
					"flex-token": predict.Something,
					"json":       predict.Nothing,
					"logs":       predict.Nothing,
				},
			},
			"rate": {
				Flags: map[string]complete.Predictor{
					"c": predict.Set{"USD", "EUR"},
					"d": predict.Something,
				},
			},
			"help": {Args: predict.Set{"report", "rate"}},
		},
	}
}
