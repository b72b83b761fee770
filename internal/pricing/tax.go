package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate applies when the state is missing from the lookup table.
var DefaultTaxRate = decimal.NewFromFloat(5.0)

// taxRates maps a US state code to its sales tax percentage.
var taxRates = map[string]decimal.Decimal{
	"AL": decimal.NewFromFloat(4.0),
	"AZ": decimal.NewFromFloat(5.6),
	"CA": decimal.NewFromFloat(7.25),
	"CO": decimal.NewFromFloat(2.9),
	"FL": decimal.NewFromFloat(6.0),
	"GA": decimal.NewFromFloat(4.0),
	"IL": decimal.NewFromFloat(6.25),
	"MA": decimal.NewFromFloat(6.25),
	"NJ": decimal.NewFromFloat(6.625),
	"NY": decimal.NewFromFloat(4.0),
	"PA": decimal.NewFromFloat(6.0),
	"TX": decimal.NewFromFloat(6.25),
	"WA": decimal.NewFromFloat(6.5),
}

// TaxRateFor resolves the tax percentage for a state. Unknown or empty
// states fall back to DefaultTaxRate.
func TaxRateFor(state string) decimal.Decimal {
	if rate, ok := taxRates[strings.ToUpper(strings.TrimSpace(state))]; ok {
		return rate
	}
	return DefaultTaxRate
}
