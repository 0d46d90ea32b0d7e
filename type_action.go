package pit

// Action is the normalized kind of a transaction row.
type Action int

const (
	// Buy opens a lot bought on the market.
	Buy Action = iota
	// Sell closes lots, first in first out.
	Sell
	// Deposit opens a lot received without a trade (vest, plan purchase).
	Deposit
	// Dividend is a cash distribution from a foreign company.
	Dividend
	// Interest is interest paid by a foreign broker.
	Interest
	// WithholdingTax is tax withheld at source on dividends or interest.
	WithholdingTax
	// Fee is a deductible cost not attached to a trade, like a wire fee.
	Fee
	// Lapse is a vest whose shares were withheld for taxes.
	Lapse
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	case Deposit:
		return "deposit"
	case Dividend:
		return "dividend"
	case Interest:
		return "interest"
	case WithholdingTax:
		return "withholding"
	case Fee:
		return "fee"
	case Lapse:
		return "lapse"
	default:
		return "unknown"
	}
}
